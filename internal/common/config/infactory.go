package config

import (
	"github.com/spf13/viper"
)

const (
	EnvInfactoryAPIKey        = "INFACTORY_API_KEY"
	EnvInfactoryIntegrationID = "INFACTORY_INTEGRATION_ID"

	// DefaultInfactoryIntegrationID is a development placeholder. Production
	// deployments should always set INFACTORY_INTEGRATION_ID.
	DefaultInfactoryIntegrationID = "9e7e9931-37e7-46eb-aad5-eec0dcbdd90a"
)

type InfactoryCredentials struct {
	APIKey        string
	IntegrationID string
	// IntegrationIDDefaulted is set when the integration id was unset or empty.
	// Any other value, whitespace included, is used as-is.
	IntegrationIDDefaulted bool
}

func (c InfactoryCredentials) HasAPIKey() bool {
	return c.APIKey != ""
}

// ReadInfactoryCredentials reads the Infactory settings from the process
// environment. Nothing is cached: every call observes the current values.
func ReadInfactoryCredentials() InfactoryCredentials {
	v := viper.New()
	v.AutomaticEnv()

	creds := InfactoryCredentials{
		APIKey:        v.GetString(EnvInfactoryAPIKey),
		IntegrationID: v.GetString(EnvInfactoryIntegrationID),
	}
	if creds.IntegrationID == "" {
		creds.IntegrationID = DefaultInfactoryIntegrationID
		creds.IntegrationIDDefaulted = true
	}
	return creds
}
