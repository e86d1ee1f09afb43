// Package config handles configuration for the server component,
// including defaults, JSON overlay, command-line flags and environment
// overrides for secrets.
package config

import (
	"time"

	"github.com/dmitrijs2005/openflag/internal/cryptox"
	"github.com/dmitrijs2005/openflag/internal/dbx"
)

// Environment variables consulted after flags. They carry values that should
// not appear in a process listing or a committed JSON file.
const (
	EnvSecretKey     = "OPENFLAG_SECRET_KEY"
	EnvAdminPassword = "OPENFLAG_ADMIN_PASSWORD"
	EnvDatabaseDSN   = "OPENFLAG_DATABASE_DSN"
)

// Config holds runtime settings for the OpenFlag server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses of the REST API and the gRPC health service.
//   - DatabaseDialect / DatabaseDSN: "sqlite" (modernc) or "postgres" (pgx) and its DSN.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Empty means a random
//     per-process secret, so tokens do not survive a restart.
//   - TokenValidityDuration: session token lifetime.
//   - AdminName / AdminEmail / AdminPassword: bootstrap account. An empty
//     password is replaced by a random one that is logged once.
//   - StrictAuth: also require a token for listing, reading and creating users.
//   - S3*: object storage for flag snapshots; an empty bucket disables them.
type Config struct {
	HTTPAddr              string
	GRPCAddr              string
	DatabaseDialect       dbx.Dialect
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	LogLevel              string
	AdminName             string
	AdminEmail            string
	AdminPassword         string
	StrictAuth            bool
	Argon                 cryptox.Params
	HealthCheckInterval   time.Duration
	ShutdownTimeout       time.Duration
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.GRPCAddr = ":50051"
	c.DatabaseDialect = dbx.DialectSQLite
	c.DatabaseDSN = "data.db"
	c.SecretKey = ""
	c.TokenValidityDuration = 24 * time.Hour
	c.LogLevel = "info"
	c.AdminName = "admin"
	c.AdminEmail = "admin@openflag.local"
	c.AdminPassword = ""
	c.StrictAuth = false
	c.Argon = cryptox.DefaultParams
	c.HealthCheckInterval = 10 * time.Second
	c.ShutdownTimeout = 5 * time.Second
	c.S3RootUser = ""
	c.S3RootPassword = ""
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// SnapshotsEnabled reports whether an S3 bucket is configured.
func (c *Config) SnapshotsEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, command-line flags and finally the
// environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}
