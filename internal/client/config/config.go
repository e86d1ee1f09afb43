package config

import "time"

// EnvToken supplies a bearer token so scripted sessions can skip login.
const EnvToken = "OPENFLAG_TOKEN"

// Config holds runtime settings for the OpenFlag CLI.
//
// Fields:
//   - ServerURL: base URL of the OpenFlag HTTP API.
//   - RequestTimeout: upper bound for a single API call.
//   - Token: optional bearer token used before any login.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	Token          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second
	c.Token = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), command-line flags (if present) and the environment.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}
