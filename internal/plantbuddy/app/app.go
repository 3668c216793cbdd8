// Package app wires configuration, storage, services and the HTTP server
// into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/bot"
	httpapi "github.com/plantbuddy/plantbuddy/internal/plantbuddy/http"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store/drivers/sqlite"
	"github.com/plantbuddy/plantbuddy/pkg/initdata"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
	"github.com/plantbuddy/plantbuddy/pkg/telegram"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	verifier *initdata.Verifier
	client   *telegram.Client

	scheduleService *service.ScheduleService
	plantService    *service.PlantService
	sessionService  *service.SessionService
	reminderService *service.ReminderService
	dispatcher      *bot.Dispatcher

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "plantbuddy",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.verifier = initdata.NewVerifier(cfg.BotToken, cfg.AuthMaxAge)
	app.client = telegram.NewClient(cfg.BotToken)

	app.initServices(loc)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if err := app.registerWebhook(); err != nil {
		return err
	}

	app.reminderService.Start()

	app.logger.Info("plantbuddy starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down plantbuddy...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.reminderService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("plantbuddy stopped")
	return nil
}

// initDatabase opens the SQLite database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices(loc *time.Location) {
	app.scheduleService = &service.ScheduleService{
		Store:    app.db,
		Location: loc,
		Policy:   service.ParseNeverWateredPolicy(app.cfg.NeverWatered),
	}

	app.plantService = &service.PlantService{Store: app.db}
	app.sessionService = service.NewSessionService(app.cfg.BotToken, "plantbuddy", app.cfg.SessionTTL)

	app.dispatcher = &bot.Dispatcher{
		Schedule: app.scheduleService,
		Plants:   app.plantService,
		Sender:   app.client,
		Logger:   app.logger,
		BaseURL:  app.cfg.BaseURL,
	}

	app.reminderService = service.NewReminderService(
		app.db,
		app.scheduleService,
		telegramNotifier{app.client},
		app.logger,
		app.cfg.ReminderInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		app.cfg.WebhookSecret,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.SessionService = app.sessionService
	router.ScheduleService = app.scheduleService
	router.PlantService = app.plantService
	router.Dispatcher = app.dispatcher
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// registerWebhook points Telegram at this deployment. Skipped when no public
// base URL is configured, which is the local-development case.
func (app *Application) registerWebhook() error {
	if app.cfg.BaseURL == "" {
		app.logger.Info("BASE_URL not set, skipping webhook registration")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := app.cfg.BaseURL + "/webhook"
	if err := app.client.SetWebhook(ctx, url, app.cfg.WebhookSecret); err != nil {
		return fmt.Errorf("failed to register webhook: %w", err)
	}

	app.logger.Info("webhook registered", "url", url)
	return nil
}

// telegramNotifier adapts the Telegram client to the reminder service. Chat
// id equals user id for private bot chats.
type telegramNotifier struct {
	client *telegram.Client
}

func (n telegramNotifier) Notify(ctx context.Context, chatID int64, text string) error {
	return n.client.SendMessage(ctx, chatID, text, nil)
}
