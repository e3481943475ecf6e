package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/activitymap"
	"github.com/goliatone/go-identity/config"
	"github.com/goliatone/go-identity/metrics"
	"github.com/goliatone/go-identity/repository"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   config.Config
	bunDB    *bun.DB
	srv      router.Server[*fiber.App]
	resolver *identity.Resolver
	metrics  *metrics.Sink
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) identity.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("identityd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cmd, err := parseCommand(os.Args[1:], os.Stderr)
	if err != nil {
		lgr.Error("invalid command line", "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if cmd.addr != "" {
		cfg.HTTPAddr = cmd.addr
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(cfg))
		fmt.Println("============")
	}

	app := &App{
		config:  cfg,
		metrics: metrics.NewSink(),
		logger:  lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}
	defer app.bunDB.Close()

	WithResolver(app)

	if cmd.name == commandLink {
		if err := runLink(ctx, app, cmd); err != nil {
			app.GetLogger("app").Error("link failed", "error", err)
			app.bunDB.Close()
			os.Exit(1)
		}
		return
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		panic(err)
	}
	WithMetricsServer(app)

	logger := app.GetLogger("app")
	go func() {
		logger.Info("identity service listening", "addr", cfg.HTTPAddr, "driver", cfg.DBDriver)
		if err := app.srv.Serve(cfg.HTTPAddr); err != nil {
			logger.Error("http server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	logger.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.Persistence()

	var (
		sqldb   *sql.DB
		dialect schema.Dialect
		err     error
	)
	switch cfg.GetDriver() {
	case config.DriverPostgres:
		sqldb, err = sql.Open("pgx", cfg.GetServer())
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to open postgres connection")
		}
		dialect = pgdialect.New()
	default:
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.GetServer())
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite connection")
		}
		sqldb.SetMaxOpenConns(1)
		dialect = sqlitedialect.New()
	}

	persistence.RegisterModel((*identity.User)(nil))

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create persistence client")
	}
	client.SetLogger(app.logger.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(identity.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets(config.DriverPostgres, config.DriverSQLite),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	db := client.DB()
	if app.config.DBDebug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.GetPingTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to reach database")
	}

	if app.config.DBAutoMigrate {
		if err := client.Migrate(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to apply migrations")
		}
		if report := client.Report(); report != nil && !report.IsZero() {
			app.GetLogger("persistence").Info("migrations applied", "report", report.String())
		}
	}

	app.bunDB = db
	return nil
}

// WithResolver builds the resolver shared by the HTTP server and the link
// command.
func WithResolver(app *App) {
	cfg := app.config

	app.resolver = identity.NewResolver(
		repository.NewUserRepository(app.bunDB),
		identity.WithPasswordHasher(identity.NewBcryptHasher(cfg.BcryptCost)),
		identity.WithProfileRefresh(cfg.RefreshProfile),
		identity.WithLoggerProvider(identityLoggers(app)),
		identity.WithActivitySink(identity.MultiActivitySink(
			activityLogSink(app.GetLogger("activity")),
			app.metrics,
		)),
	)
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Debug,
			StrictRouting:     false,
		}))
	})

	controller := identity.NewHTTPController(app.resolver, identity.WithHTTPLoggerProvider(identityLoggers(app)))
	controller.RegisterRoutes(srv.Router())

	app.srv = srv
	return nil
}

// WithMetricsServer exposes the metrics registry on its own listener when
// IDENTITY_METRICS_ADDR is set.
func WithMetricsServer(app *App) {
	addr := app.config.MetricsAddr
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())

	logger := app.GetLogger("metrics")
	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
}

func identityLoggers(app *App) identity.LoggerProvider {
	return identity.LoggerProviderFunc(app.GetLogger)
}

func activityLogSink(logger identity.Logger) identity.ActivitySink {
	return identity.ActivitySinkFunc(func(_ context.Context, event identity.ActivityEvent) error {
		record := activitymap.Normalize(event, activitymap.WithoutEmail())
		logger.Info("identity activity",
			"verb", record.Verb,
			"actor_id", record.ActorID,
			"metadata", print.MaybePrettyJSON(record.Metadata),
		)
		return nil
	})
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
