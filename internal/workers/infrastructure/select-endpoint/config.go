package selectendpoint

import "time"

type Config struct {
	Timeout   time.Duration
	KeyPrefix string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   10 * time.Second,
		KeyPrefix: "endpoint:mode:",
	}
}
