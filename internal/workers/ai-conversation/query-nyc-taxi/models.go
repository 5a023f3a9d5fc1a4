package querynyctaxi

import (
	"encoding/json"

	"infactory-workers/internal/common/validation"
)

const (
	TaskType = "query-nyc-taxi"

	ToolName        = "queryNYCTaxi"
	ToolDescription = "Query information about NYC Taxi Rides dataset through Infactory's Unified Endpoint API"

	Source = "NYC Taxi Dataset via Infactory Chat API"
)

// Input is the tool argument. Query is forwarded as-is, empty included.
type Input struct {
	Query string `json:"query"`
}

// Output holds exactly one of Success or Failure. Both embed as pointers so
// the job variables are the flat shape of whichever one is set.
type Output struct {
	*Success
	*Failure
}

type Success struct {
	Answer   string   `json:"answer"`
	Metadata Metadata `json:"metadata"`
	Source   string   `json:"source"`
}

// Metadata is copied from the upstream response without interpretation.
// A field the upstream leaves out is left out here too.
type Metadata struct {
	Model   json.RawMessage `json:"model,omitempty"`
	Created json.RawMessage `json:"created,omitempty"`
	Usage   json.RawMessage `json:"usage,omitempty"`
}

type Failure struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (o *Output) OK() bool {
	return o != nil && o.Success != nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages []chatMessage `json:"messages"`
	Model    string        `json:"model"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Model   json.RawMessage `json:"model"`
	Created json.RawMessage `json:"created"`
	Usage   json.RawMessage `json:"usage"`
}

// answer returns choices[0].message.content, or "" when the path is absent.
func (r *chatCompletionResponse) answer() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ParameterSchema is the tool's declared argument schema. Job variables are
// validated against it before Execute runs.
func ParameterSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"query"},
		Properties: map[string]validation.Property{
			"query": {
				Type:        "string",
				Description: "The natural language query about NYC Taxi data",
			},
		},
	}
}

// Tool is the declaration handed to agent frameworks and the activity registry.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func Definition() Tool {
	return Tool{
		Name:        ToolName,
		Description: ToolDescription,
		Parameters:  ParameterSchema().ToMap(),
	}
}
