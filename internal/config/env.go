package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig    = "WORLDCTL_CONFIG"
	EnvEndpoint  = "WORLDCTL_ENDPOINT"
	EnvTokenPath = "WORLDCTL_TOKEN_PATH"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // WORLDCTL_CONFIG: override config file path
	Endpoint   string // WORLDCTL_ENDPOINT: override API endpoint
	TokenPath  string // WORLDCTL_TOKEN_PATH: override token file path
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify the Config; Resolve applies the fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Endpoint:   os.Getenv(EnvEndpoint),
		TokenPath:  os.Getenv(EnvTokenPath),
	}
}
