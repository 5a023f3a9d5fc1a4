package selectendpoint

import (
	"infactory-workers/internal/common/validation"
	"infactory-workers/internal/endpoint"
)

type Input struct {
	UserID   string `json:"userId"`
	Endpoint string `json:"endpoint"`
}

type Output struct {
	UserID           string          `json:"userId"`
	Endpoint         endpoint.Mode   `json:"endpoint"`
	PreviousEndpoint endpoint.Mode   `json:"previousEndpoint"`
	Options          []endpoint.Item `json:"options"`
}

func InputSchema() validation.JSONSchema {
	modes := make([]string, 0, 3)
	for _, o := range endpoint.Options() {
		modes = append(modes, string(o.Value))
	}
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "endpoint"},
		Properties: map[string]validation.Property{
			"userId": {
				Type:        "string",
				Description: "Owner of the endpoint preference",
				MinLength:   validation.IntPtr(1),
			},
			"endpoint": {
				Type:        "string",
				Description: "Requested endpoint mode",
				Enum:        modes,
			},
		},
	}
}

func OutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"userId", "endpoint", "previousEndpoint", "options"},
		Properties: map[string]validation.Property{
			"userId":           {Type: "string"},
			"endpoint":         {Type: "string"},
			"previousEndpoint": {Type: "string"},
			"options": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"value", "label", "selected"},
					Properties: map[string]validation.Property{
						"value":    {Type: "string"},
						"label":    {Type: "string"},
						"selected": {Type: "boolean"},
					},
				},
			},
		},
	}
}
