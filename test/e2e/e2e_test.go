//go:build e2e

// Package e2e runs both workers against a real Zeebe broker and Redis.
// Start them (docker compose) and run: go test -tags e2e ./test/e2e/...
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infactory-workers/internal/common/camunda"
	"infactory-workers/internal/common/config"
	"infactory-workers/internal/common/database"
	"infactory-workers/internal/common/logger"
	"infactory-workers/internal/common/observability"
	querynyctaxi "infactory-workers/internal/workers/ai-conversation/query-nyc-taxi"
	selectendpoint "infactory-workers/internal/workers/infrastructure/select-endpoint"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestNYCTaxiAssistantProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logger.NewTestLogger(t)

	client, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         envOr("ZEEBE_ADDRESS", "localhost:26500"),
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
	})
	require.NoError(t, err, "Zeebe connection failed")
	defer client.Close()

	rdb, err := database.NewRedis(config.RedisConfig{Address: envOr("REDIS_ADDRESS", "localhost:6379")})
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	const userID = "e2e-user"
	sepCfg := selectendpoint.LoadConfig()
	require.NoError(t, rdb.Client.Del(ctx, sepCfg.KeyPrefix+userID).Err())

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"42 rides"}}],"model":"infactory-v1","created":123,"usage":{"tokens":10}}`)
	}))
	defer upstream.Close()
	t.Setenv(config.EnvInfactoryAPIKey, "e2e-key")

	qCfg := querynyctaxi.LoadConfig()
	qCfg.BaseURL = upstream.URL

	obs := observability.Noop()
	opts := camunda.WorkerOptions{MaxJobsActive: 1, Timeout: 30 * time.Second}
	workers := []*camunda.CamundaWorker{
		camunda.NewWorker(client.GetClient(), selectendpoint.TaskType, opts,
			selectendpoint.NewHandler(sepCfg, selectendpoint.NewRedisPreferenceStore(rdb.Client, sepCfg.KeyPrefix), log), obs, log),
		camunda.NewWorker(client.GetClient(), querynyctaxi.TaskType, opts,
			querynyctaxi.NewHandler(qCfg, log), obs, log),
	}
	defer func() {
		for _, w := range workers {
			w.Stop()
		}
	}()

	deployProcess(ctx, t, client.GetClient())

	step, err := client.GetClient().NewCreateInstanceCommand().
		BPMNProcessId("nyc-taxi-assistant").
		LatestVersion().
		VariablesFromMap(map[string]interface{}{
			"userId":   userID,
			"endpoint": "direct",
			"query":    "How many rides?",
		})
	require.NoError(t, err)

	result, err := step.WithResult().Send(ctx)
	require.NoError(t, err, "process instance did not complete")

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.GetVariables()), &vars))

	assert.Equal(t, "direct", vars["endpoint"])
	assert.Equal(t, "unified", vars["previousEndpoint"])
	assert.Equal(t, "42 rides", vars["answer"])
	assert.Equal(t, querynyctaxi.Source, vars["source"])
	assert.NotContains(t, vars, "error")

	stored, err := rdb.Client.Get(ctx, sepCfg.KeyPrefix+userID).Result()
	require.NoError(t, err)
	assert.Equal(t, "direct", stored)
}

func deployProcess(ctx context.Context, t *testing.T, client zbc.Client) {
	t.Helper()
	_, err := client.NewDeployResourceCommand().
		AddResourceFile("testdata/nyc-taxi-assistant.bpmn").
		Send(ctx)
	require.NoError(t, err, "BPMN deployment failed")
}

func BenchmarkQueryNYCTaxi_Execute(b *testing.B) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"42 rides"}}],"model":"infactory-v1","created":123,"usage":{}}`)
	}))
	defer upstream.Close()
	b.Setenv(config.EnvInfactoryAPIKey, "bench-key")

	cfg := querynyctaxi.LoadConfig()
	cfg.BaseURL = upstream.URL
	handler := querynyctaxi.NewHandler(cfg, logger.NewNoOpLogger())
	input := &querynyctaxi.Input{Query: "How many rides?"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if out := handler.Execute(context.Background(), input); !out.OK() {
			b.Fatalf("unexpected failure: %s", out.Error)
		}
	}
}
