package querynyctaxi

import (
	"time"

	"infactory-workers/internal/common/config"
)

type Config struct {
	BaseURL string
	Model   string
	// HTTPTimeout of zero leaves the request bounded only by the job context.
	HTTPTimeout time.Duration
	// CompleteTimeout bounds reporting the result back to the broker.
	CompleteTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:         config.DefaultInfactoryBaseURL,
		Model:           config.DefaultInfactoryModel,
		CompleteTimeout: 10 * time.Second,
	}
}

// ConfigFrom overlays the apis.infactory section on the defaults.
func ConfigFrom(apis config.APIsConfig) *Config {
	cfg := LoadConfig()
	if apis.Infactory.BaseURL != "" {
		cfg.BaseURL = apis.Infactory.BaseURL
	}
	if apis.Infactory.Model != "" {
		cfg.Model = apis.Infactory.Model
	}
	return cfg
}
