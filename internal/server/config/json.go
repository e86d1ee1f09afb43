package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/flagx"
	"github.com/dmitrijs2005/openflag/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Durations use timex.Duration, which accepts both "1s" strings and integer
// nanoseconds. Zero values mean "not set" and leave the current value alone.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	GRPCAddr              string         `json:"grpc_addr"`
	DatabaseDialect       string         `json:"database_dialect"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	LogLevel              string         `json:"log_level"`
	AdminName             string         `json:"admin_name"`
	AdminEmail            string         `json:"admin_email"`
	AdminPassword         string         `json:"admin_password"`
	StrictAuth            *bool          `json:"strict_auth"`
	ArgonTime             uint32         `json:"argon_time"`
	ArgonMemoryKiB        uint32         `json:"argon_memory_kib"`
	ArgonThreads          uint8          `json:"argon_threads"`
	HealthCheckInterval   timex.Duration `json:"health_check_interval"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by -c or
// -config into config. Without that flag nothing is loaded. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	if c.DatabaseDialect != "" {
		config.DatabaseDialect = dbx.Dialect(c.DatabaseDialect)
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.AdminName, c.AdminName)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)
	if c.StrictAuth != nil {
		config.StrictAuth = *c.StrictAuth
	}
	if c.ArgonTime != 0 {
		config.Argon.Time = c.ArgonTime
	}
	if c.ArgonMemoryKiB != 0 {
		config.Argon.MemoryKiB = c.ArgonMemoryKiB
	}
	if c.ArgonThreads != 0 {
		config.Argon.Threads = c.ArgonThreads
	}
	if c.HealthCheckInterval.Duration != 0 {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
