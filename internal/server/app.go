// Package server wires the configuration, storage, services and transports
// of the OpenFlag server and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/openflag/internal/common"
	"github.com/dmitrijs2005/openflag/internal/dbx"
	"github.com/dmitrijs2005/openflag/internal/logging"
	"github.com/dmitrijs2005/openflag/internal/server/auth"
	"github.com/dmitrijs2005/openflag/internal/server/config"
	"github.com/dmitrijs2005/openflag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/openflag/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gs "github.com/dmitrijs2005/openflag/internal/server/grpc"
	hs "github.com/dmitrijs2005/openflag/internal/server/http"
)

// Request metrics live on the default Prometheus registry, which accepts
// each collector only once per process.
var apiMetrics = sync.OnceValue(hs.NewPrometheusMetrics)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *hs.Server
	grpc   *gs.HealthServer
	users  *services.UserService
	flags  *services.FlagService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, logging.NewJSON(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := dbx.Open(ctx, c.DatabaseDialect, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(c.DatabaseDialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	secret := []byte(c.SecretKey)
	if len(secret) == 0 {
		secret = common.GenerateRandByteArray(32)
		logger.Warn(ctx, "no secret key configured; using a random one, tokens will not survive a restart",
			"env", config.EnvSecretKey)
	}
	tokens := auth.NewTokenService(secret, c.TokenValidityDuration)

	fs := services.NewFlagService(db, rm)
	us, err := services.NewUserService(db, rm, tokens, c.Argon)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	created, generated, err := us.EnsureAdmin(ctx, c.AdminName, c.AdminEmail, c.AdminPassword)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}
	switch {
	case generated != "":
		logger.Warn(ctx, "created admin account with a generated password; change it", "email", c.AdminEmail, "password", generated)
	case created:
		logger.Info(ctx, "created admin account", "email", c.AdminEmail)
	}

	policy := hs.DefaultPolicy()
	if c.StrictAuth {
		policy = hs.StrictPolicy()
	}

	deps := hs.Deps{
		Flags:   fs,
		Users:   us,
		Tokens:  tokens,
		Policy:  policy,
		Logger:  logger.With("module", "api"),
		Metrics: apiMetrics(),
	}
	if c.SnapshotsEnabled() {
		deps.Snapshots = services.NewSnapshotService(fs, c)
	}

	handler := hs.NewHandler(hs.MakeEndpoints(deps), logger, promhttp.Handler())

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   hs.NewServer(c.HTTPAddr, handler, logger, c.ShutdownTimeout),
		grpc:   gs.NewHealthServer(c.GRPCAddr, logger, db, c.HealthCheckInterval),
		users:  us,
		flags:  fs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one server; its failure stops the whole app.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled or a signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpc.Run)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
