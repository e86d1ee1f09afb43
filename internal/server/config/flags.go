package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-t string   database dialect: sqlite or postgres
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-v int      token validity, minutes
//	-l string   log level: debug, info, warn, error
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The argument list is first narrowed with flagx.FilterArgs so that flags
// owned by other components do not fail the parse.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-t", "-d", "-s", "-v", "-l", "-u", "-p", "-b", "-r", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "address and port to run the gRPC health service")
	dialect := fs.String("t", string(config.DatabaseDialect), "database dialect (sqlite|postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("v", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.DatabaseDialect = dbx.Dialect(*dialect)
	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}

// parseEnv applies the secret-bearing environment overrides.
func parseEnv(config *Config) {
	flagx.EnvOverride(&config.SecretKey, EnvSecretKey)
	flagx.EnvOverride(&config.AdminPassword, EnvAdminPassword)
	flagx.EnvOverride(&config.DatabaseDSN, EnvDatabaseDSN)
}
