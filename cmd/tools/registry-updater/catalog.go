package main

import (
	"time"

	"infactory-workers/internal/common/errors"
	querynyctaxi "infactory-workers/internal/workers/ai-conversation/query-nyc-taxi"
	selectendpoint "infactory-workers/internal/workers/infrastructure/select-endpoint"
	"infactory-workers/pkg/registry"
)

const (
	catalogVersion = "1.0.0"
	// matches the workers.<taskType>.timeout default
	defaultJobTimeout = 30 * time.Second
)

// buildCatalog derives the registry from the worker packages so the file
// cannot drift from the declared schemas.
func buildCatalog() *registry.ActivityRegistry {
	tool := querynyctaxi.Definition()

	return registry.New(catalogVersion, []registry.Activity{
		{
			ID:                   querynyctaxi.TaskType,
			DisplayName:          "Query NYC Taxi",
			Description:          tool.Description,
			Category:             "ai-conversation",
			Version:              "1.0.0",
			TaskType:             querynyctaxi.TaskType,
			ImplementationStatus: "completed",
			Tool: &registry.ToolDeclaration{
				Name:        tool.Name,
				Description: tool.Description,
			},
			InputSchema:  tool.Parameters,
			OutputSchema: queryOutputSchema(),
			ErrorCodes: []string{
				string(errors.ErrCodeInvalidInput),
			},
			Timeout:   defaultJobTimeout.String(),
			Retries:   0,
			Workflows: []string{"nyc-taxi-assistant"},
			Tags:      []string{"infactory", "nyc-taxi", "llm-tool"},
		},
		{
			ID:                   selectendpoint.TaskType,
			DisplayName:          "Select Endpoint",
			Description:          "Stores the user's Infactory endpoint mode and returns the rendered selector options",
			Category:             "infrastructure",
			Version:              "1.0.0",
			TaskType:             selectendpoint.TaskType,
			ImplementationStatus: "completed",
			InputSchema:          selectendpoint.InputSchema().ToMap(),
			OutputSchema:         selectendpoint.OutputSchema().ToMap(),
			ErrorCodes: []string{
				string(errors.ErrCodeInvalidInput),
				string(errors.ErrCodeInvalidEndpointMode),
				string(errors.ErrCodePreferenceStoreFailed),
			},
			Timeout:   selectendpoint.LoadConfig().Timeout.String(),
			Retries:   errors.GetRetryCount(errors.ErrCodePreferenceStoreFailed),
			Workflows: []string{"nyc-taxi-assistant"},
			Tags:      []string{"infactory", "preferences"},
		},
	})
}

// queryOutputSchema describes both result shapes; exactly one applies.
func queryOutputSchema() map[string]interface{} {
	return map[string]interface{}{
		"oneOf": []interface{}{
			map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"answer", "metadata", "source"},
				"properties": map[string]interface{}{
					"answer": map[string]interface{}{"type": "string"},
					"metadata": map[string]interface{}{
						"type": "object",
						"description": "model, created and usage as the upstream sent them; absent fields are omitted",
						"properties": map[string]interface{}{
							"model":   map[string]interface{}{},
							"created": map[string]interface{}{},
							"usage":   map[string]interface{}{},
						},
					},
					"source": map[string]interface{}{"type": "string", "enum": []interface{}{querynyctaxi.Source}},
				},
			},
			map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"error"},
				"properties": map[string]interface{}{
					"error":   map[string]interface{}{"type": "string"},
					"details": map[string]interface{}{"type": "string"},
				},
			},
		},
	}
}
