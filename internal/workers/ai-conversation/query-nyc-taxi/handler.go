package querynyctaxi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"infactory-workers/internal/common/camunda"
	"infactory-workers/internal/common/config"
	"infactory-workers/internal/common/errors"
	commonhttp "infactory-workers/internal/common/http"
	"infactory-workers/internal/common/logger"
	"infactory-workers/internal/common/metrics"
	"infactory-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const failurePrefix = "Failed to query NYC Taxi data: "

type Handler struct {
	config       *Config
	client       *commonhttp.Client
	credentials  func() config.InfactoryCredentials
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, log logger.Logger) *Handler {
	return NewHandlerWithClient(cfg, commonhttp.NewClient(cfg.HTTPTimeout), log)
}

func NewHandlerWithClient(cfg *Config, client *commonhttp.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{
		"taskType": TaskType,
		"tool":     ToolName,
	})
	return &Handler{
		config:       cfg,
		client:       client,
		credentials:  config.ReadInfactoryCredentials,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

// Handle runs the tool for one job. Tool failures still complete the job,
// carrying the Failure variables; only variables that do not match the
// parameter schema raise a BPMN error.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := jobContext(job)
	defer cancel()

	output := h.Execute(ctx, input)

	if err := h.completeJob(client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func parseInput(job entities.Job) (*Input, error) {
	var document interface{}
	if err := json.Unmarshal([]byte(job.Variables), &document); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := validation.Validate(document, ParameterSchema())
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// jobContext is cancelled when the broker's job deadline passes.
func jobContext(job entities.Job) (context.Context, context.CancelFunc) {
	if job.Deadline > 0 {
		return context.WithDeadline(context.Background(), time.UnixMilli(job.Deadline))
	}
	return context.WithCancel(context.Background())
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.CompleteTimeout)
	defer cancel()

	_, err = camunda.Retry(ctx, camunda.DefaultRetryConfig, func(ctx context.Context) (interface{}, error) {
		return cmd.Send(ctx)
	}, "complete-job")
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
	return err
}

// Execute forwards input.Query to the Infactory chat-completions endpoint.
// It never returns nil and never panics: every failure, including a panic
// further down, comes back as Output.Failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (out *Output) {
	log := h.logger.WithFields(map[string]interface{}{
		"invocationId": uuid.NewString(),
	})
	errorCode := ""

	defer func() {
		if r := recover(); r != nil {
			errorCode = string(errors.ErrCodeInternal)
			out = &Output{Failure: &Failure{
				Error:   failurePrefix + panicMessage(r),
				Details: string(debug.Stack()),
			}}
			log.Error("tool panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
		}

		if out.OK() {
			metrics.ToolInvocations.WithLabelValues(ToolName, metrics.OutcomeSuccess, "").Inc()
			return
		}
		metrics.ToolInvocations.WithLabelValues(ToolName, metrics.OutcomeFailure, errorCode).Inc()
	}()

	if input == nil {
		input = &Input{}
	}
	log.Info("query started", map[string]interface{}{
		"query": input.Query,
	})

	success, err := h.query(ctx, log, input)
	if err != nil {
		stdErr := errors.Normalize(err)
		errorCode = string(stdErr.Code)
		failure := toFailure(stdErr)

		log.Error("query failed", map[string]interface{}{
			"errorCode": errorCode,
			"error":     failure.Error,
			"details":   stdErr.Details,
		})
		return &Output{Failure: failure}
	}

	log.Info("query succeeded", map[string]interface{}{
		"answerLength": len(success.Answer),
		"model":        string(success.Metadata.Model),
	})
	return &Output{Success: success}
}

func (h *Handler) query(ctx context.Context, log logger.Logger, input *Input) (*Success, error) {
	creds := h.credentials()
	log.Info("configuration checked", map[string]interface{}{
		"hasApiKey":        creds.HasAPIKey(),
		"hasIntegrationId": !creds.IntegrationIDDefaulted,
		"apiKeyLength":     len(creds.APIKey),
	})
	if !creds.HasAPIKey() {
		return nil, errors.NewConfigurationMissingError(config.EnvInfactoryAPIKey)
	}
	if creds.IntegrationIDDefaulted {
		log.Warn("integration id not set, using default", map[string]interface{}{
			"integrationId":          creds.IntegrationID,
			"integrationIdDefaulted": true,
		})
	}

	requestURL := h.completionsURL(creds.IntegrationID)
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + creds.APIKey,
		"Accept":        "application/json",
	}
	payload := chatCompletionRequest{
		Messages: []chatMessage{{Role: "user", Content: input.Query}},
		Model:    h.config.Model,
	}

	log.Info("sending request", map[string]interface{}{
		"url":   requestURL,
		"model": payload.Model,
	})

	start := time.Now()
	resp, err := h.client.PostJSON(ctx, requestURL, headers, payload)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ToolUpstreamDuration.WithLabelValues(ToolName, metrics.StatusClass(0)).Observe(elapsed.Seconds())
		return nil, errors.NewTransportError(err)
	}
	metrics.ToolUpstreamDuration.WithLabelValues(ToolName, metrics.StatusClass(resp.StatusCode)).Observe(elapsed.Seconds())

	log.Info("response received", map[string]interface{}{
		"status":     resp.StatusCode,
		"ok":         resp.OK(),
		"durationMs": elapsed.Milliseconds(),
	})

	if !resp.OK() {
		return nil, errors.NewUpstreamHTTPError(resp.StatusCode, string(resp.Body), requestURL)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return nil, errors.NewTransportError(fmt.Errorf("decode response body: %w", err))
	}

	answer := parsed.answer()
	if answer == "" {
		return nil, errors.NewMalformedUpstreamResponseError(fmt.Sprintf("choices: %d", len(parsed.Choices)))
	}

	return &Success{
		Answer: answer,
		Metadata: Metadata{
			Model:   parsed.Model,
			Created: parsed.Created,
			Usage:   parsed.Usage,
		},
		Source: Source,
	}, nil
}

func (h *Handler) completionsURL(integrationID string) string {
	return fmt.Sprintf("%s/v1/integrations/chat/%s/chat/completions",
		strings.TrimRight(h.config.BaseURL, "/"),
		url.PathEscape(integrationID),
	)
}

// toFailure keeps the fixed configuration message as-is; every other
// failure gets the tool prefix and its details.
func toFailure(stdErr *errors.StandardError) *Failure {
	if stdErr.Code == errors.ErrCodeConfigurationMissing {
		return &Failure{Error: stdErr.Message}
	}
	return &Failure{
		Error:   failurePrefix + stdErr.Message,
		Details: stdErr.Details,
	}
}

func panicMessage(r interface{}) string {
	switch v := r.(type) {
	case error:
		if v.Error() != "" {
			return v.Error()
		}
	case string:
		if v != "" {
			return v
		}
	}
	return "Unknown error occurred"
}
