package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/n1rocket/go-profile-validity/internal/config"
	"github.com/n1rocket/go-profile-validity/internal/db"
	"github.com/n1rocket/go-profile-validity/internal/email"
	httpserver "github.com/n1rocket/go-profile-validity/internal/http"
	"github.com/n1rocket/go-profile-validity/internal/http/handlers"
	"github.com/n1rocket/go-profile-validity/internal/http/middleware"
	"github.com/n1rocket/go-profile-validity/internal/identity"
	"github.com/n1rocket/go-profile-validity/internal/metrics"
	"github.com/n1rocket/go-profile-validity/internal/repository/postgres"
	"github.com/n1rocket/go-profile-validity/internal/security"
	"github.com/n1rocket/go-profile-validity/internal/service"
	"github.com/n1rocket/go-profile-validity/internal/session"
	"github.com/n1rocket/go-profile-validity/internal/token"
	"github.com/n1rocket/go-profile-validity/internal/worker"
)

// App represents the application with all its dependencies
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *db.DB
	Redis      *redis.Client
	Metrics    *metrics.Metrics
	Dispatcher *worker.EmailDispatcher
	Server     *http.Server
}

// NewApp connects to the backing services and wires the HTTP server
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger}

	dbPool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = dbPool

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database); err != nil {
			app.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	}

	tokenManager, err := token.NewManager(
		cfg.JWT.Algorithm,
		cfg.JWT.Secret,
		cfg.JWT.PrivateKeyPath,
		cfg.JWT.PublicKeyPath,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	opts, err := newValidityOptions(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	ready := map[string]handlers.Check{"database": dbPool.Health}

	sessions, err := app.newSessionStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	if store, ok := sessions.(*session.RedisStore); ok {
		ready["sessions"] = store.Ping
	}

	app.Metrics = metrics.New()

	mailer, err := newMailer(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Dispatcher = worker.NewEmailDispatcher(mailer, worker.Config{
		Workers:     cfg.Email.WorkerCount,
		QueueSize:   cfg.Email.QueueSize,
		MaxRetries:  cfg.Email.MaxRetries,
		RetryDelay:  cfg.Email.RetryDelay,
		SendTimeout: cfg.Email.SendTimeout,
	}, logger)
	app.Dispatcher.SetObserver(app.Metrics)
	app.Metrics.RegisterQueueDepth(app.Dispatcher.QueueSize)

	users := postgres.NewUserRepository(dbPool)

	validity := service.NewValidityService(
		users,
		postgres.NewUnitOfWork(dbPool),
		security.UUIDGenerator{},
		security.NewDefaultSecretHasher(),
		app.Dispatcher,
		opts,
		logger,
	)
	validity.SetRecorder(app.Metrics)

	profiles := service.NewProfileService(users, security.NewDefaultPasswordHasher(), logger)

	deps := httpserver.Deps{
		Validity: validity,
		Profiles: profiles,
		Sessions: sessions,
		Cookies: session.Cookies{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Session.Secure,
		},
		Paths: handlers.Paths{
			BaseURL:         cfg.App.BaseURL,
			Profile:         cfg.Validity.ProfilePath,
			ConfirmRedirect: cfg.Validity.ConfirmRedirect,
		},
		Identity:   identity.NewBearerResolver(tokenManager),
		Ready:      ready,
		IssueLimit: middleware.IssueRateLimitConfig(cfg.Validity.IssueRate, cfg.Validity.IssueBurst, cfg.Validity.IssueWindow),
		Security:   middleware.DefaultSecurityConfig(),
		Logger:     logger,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = app.Metrics
		deps.MetricsPath = cfg.Metrics.Path
	}

	app.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      httpserver.Routes(deps),
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	}

	return app, nil
}

// Run serves until ctx is cancelled, then drains the server and the mail queue
func (a *App) Run(ctx context.Context) error {
	a.Dispatcher.Start()

	serverErrors := make(chan error, 1)
	go func() {
		a.Logger.Info("starting HTTP server",
			"port", a.Config.App.Port,
			"environment", a.Config.App.Environment,
		)
		serverErrors <- a.Server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.App.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Logger.Error("graceful shutdown failed", "error", err)
			if err := a.Server.Close(); err != nil {
				a.Logger.Error("forced shutdown failed", "error", err)
			}
		}
	}

	if err := a.Dispatcher.Stop(a.Config.App.ShutdownTimeout); err != nil {
		a.Logger.Error("email dispatcher did not drain", "error", err)
	}

	return runErr
}

// Close closes all resources
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func (a *App) newSessionStore(ctx context.Context) (session.Store, error) {
	cfg := a.Config
	if cfg.Session.Backend != "redis" {
		return session.NewMemoryStore(cfg.Session.MaxEntries, cfg.Session.TTL), nil
	}

	a.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := session.NewRedisStore(a.Redis, cfg.Redis.Prefix, cfg.Session.TTL)
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return store, nil
}

// newMailer returns the transport the dispatcher delivers through. The log
// transport keeps messages in memory and only logs them.
func newMailer(cfg *config.Config, logger *slog.Logger) (email.Service, error) {
	if cfg.Email.Transport == "log" {
		return email.NewMockService(logger), nil
	}

	smtpCfg := email.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.User,
		Password:    cfg.SMTP.Password,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		TLSEnabled:  cfg.SMTP.TLSEnabled,
		Timeout:     cfg.SMTP.Timeout,
	}
	if err := email.ValidateSMTPConfig(smtpCfg); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	return email.NewSMTPService(smtpCfg, logger), nil
}

// migrateUp applies the embedded migrations on a dedicated pool; closing the
// migration instance closes the pool it was given.
func migrateUp(cfg config.DatabaseConfig) error {
	migrationDB, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer migrationDB.Close()
	return db.NewMigrator(migrationDB.DB, db.MigrationConfig{}).Up()
}

func newValidityOptions(cfg *config.Config) (*service.ValidityOptions, error) {
	return service.NewValidityOptions(service.ValidityOptionsInput{
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SiteURL:     cfg.Validity.SiteURL,
		Template: email.Template{
			Subject: cfg.Validity.Subject,
			Body:    cfg.Validity.Body,
		},
		SuccessMessage:    cfg.Validity.SuccessMessage,
		FailMessage:       cfg.Validity.FailMessage,
		SuppressedDomains: cfg.Validity.SuppressedDomains,
	})
}
