package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"infactory-workers/internal/common/config"
	"infactory-workers/internal/common/errors"
	"infactory-workers/internal/common/logger"
	"infactory-workers/internal/common/metrics"
	"infactory-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = &RetryConfig{
	MaxRetries: 2,
	BaseDelay:  time.Millisecond,
	MaxDelay:   5 * time.Millisecond,
}

func TestRetry(t *testing.T) {
	t.Run("retries transient errors then succeeds", func(t *testing.T) {
		calls := 0
		result, err := Retry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("rpc error: code = Unavailable")
			}
			return "ok", nil
		}, "complete-job")

		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry rejections", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("rpc error: code = NotFound desc = job not found")
		}, "complete-job")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, &errors.StandardError{Code: errors.ErrCodeBrokerRejected})
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := Retry(context.Background(), fastRetry, func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("context deadline exceeded")
		}, "fail-job")

		require.Error(t, err)
		assert.Equal(t, fastRetry.MaxRetries+1, calls)
		assert.ErrorIs(t, err, &errors.StandardError{Code: errors.ErrCodeBrokerTimeout})
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

		_, err := Retry(ctx, slow, func(context.Context) (interface{}, error) {
			cancel()
			return nil, stderrors.New("connection refused")
		}, "complete-job")

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientConfigFrom(t *testing.T) {
	cfg := ClientConfigFrom(config.CamundaConfig{
		BrokerAddress:  "zeebe:26500",
		Plaintext:      true,
		Timeout:        1500,
		RequestTimeout: 30000,
	})

	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.UsePlaintextConnection)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectionTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

type stubHandler struct {
	err   error
	calls int
}

func (s *stubHandler) Handle(worker.JobClient, entities.Job) error {
	s.calls++
	return s.err
}

func TestInstrument(t *testing.T) {
	const taskType = "instrument-test"
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Type: taskType}}

	ok := &stubHandler{}
	instrument(taskType, ok, observability.Noop(), logger.NewTestLogger(t))(nil, job)
	assert.Equal(t, 1, ok.calls)

	failing := &stubHandler{err: stderrors.New("thrown")}
	instrument(taskType, failing, nil, logger.NewTestLogger(t))(nil, job)
	assert.Equal(t, 1, failing.calls)

	assert.Zero(t, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
