package selectendpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"infactory-workers/internal/common/camunda"
	"infactory-workers/internal/common/errors"
	"infactory-workers/internal/common/logger"
	"infactory-workers/internal/common/metrics"
	"infactory-workers/internal/common/validation"
	"infactory-workers/internal/endpoint"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-endpoint"
)

// Handler is the host side of the endpoint selector: it owns the mode per
// user and feeds it to the selector as props.
type Handler struct {
	config       *Config
	store        PreferenceStore
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, store PreferenceStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := parseInput(job)
	if err != nil {
		h.fail(client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(client, job, err)
		return err
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func parseInput(job entities.Job) (*Input, error) {
	result, err := validation.ValidateJSON(job.Variables, InputSchema())
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		var input Input
		if json.Unmarshal([]byte(job.Variables), &input) == nil &&
			input.Endpoint != "" && result.HasErrors("endpoint") {
			return nil, errors.NewInvalidEndpointModeError(input.Endpoint)
		}
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute applies the requested mode for input.UserID through the selector
// and reports the previous and current mode.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	requested := endpoint.Mode(input.Endpoint)
	if !requested.Valid() {
		return nil, errors.NewInvalidEndpointModeError(input.Endpoint)
	}

	previous, err := h.store.Get(ctx, input.UserID)
	if err != nil {
		return nil, errors.NewPreferenceStoreFailedError(err)
	}

	current := previous
	var storeErr error
	view := endpoint.Selector(endpoint.Props{
		Endpoint: previous,
		SetEndpoint: func(mode endpoint.Mode) {
			if storeErr = h.store.Set(ctx, input.UserID, mode); storeErr == nil {
				current = mode
			}
		},
	})
	view.OnValueChange(input.Endpoint)

	if storeErr != nil {
		return nil, errors.NewPreferenceStoreFailedError(storeErr)
	}

	metrics.EndpointSelections.WithLabelValues(string(current)).Inc()
	h.logger.Info("endpoint selected", map[string]interface{}{
		"userId":           input.UserID,
		"endpoint":         current,
		"previousEndpoint": previous,
	})

	return &Output{
		UserID:           input.UserID,
		Endpoint:         current,
		PreviousEndpoint: previous,
		Options:          endpoint.Selector(endpoint.Props{Endpoint: current}).Items(),
	}, nil
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	_, err = camunda.Retry(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) (interface{}, error) {
		return cmd.Send(ctx)
	}, "complete-job")
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return err
}
