package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpadapter "github.com/munidigital/document-assistant/internal/adapters/http"
	"github.com/munidigital/document-assistant/internal/config"
	"github.com/munidigital/document-assistant/internal/core/ports"
	"github.com/munidigital/document-assistant/internal/core/usecase"
	"github.com/munidigital/document-assistant/internal/infrastructure/abaco"
	natsmessaging "github.com/munidigital/document-assistant/internal/infrastructure/messaging/nats"
	"github.com/munidigital/document-assistant/internal/infrastructure/repository/postgres"
	"github.com/munidigital/document-assistant/internal/infrastructure/resilience"
	"github.com/munidigital/document-assistant/internal/infrastructure/session"
	"github.com/munidigital/document-assistant/internal/observability/logging"
	"github.com/munidigital/document-assistant/internal/observability/metrics"
)

const serviceName = "document-assistant"

type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Messenger *natsmessaging.Messenger
	Dialogue  *usecase.DialogueUseCase
	Metrics   *metrics.Metrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	store := session.NewStore()
	appMetrics := metrics.New(serviceName, func() float64 { return float64(store.Len()) })
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	var audit ports.AuditLog
	var db *sql.DB
	if cfg.PostgresDSN != "" {
		opened, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = opened
		repo := postgres.NewAuditRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure audit schema: %w", err)
		}
		audit = repo
	}

	messenger, err := natsmessaging.New(cfg.NATSURL, cfg.NATSInboundSubject, cfg.NATSOutboundSubject, natsmessaging.Options{
		Executor:  executor,
		Logger:    logger,
		SendRate:  float64(cfg.OutboundRatePerSecond),
		SendBurst: cfg.OutboundBurst,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("init messenger: %w", err)
	}

	backend := abaco.New(cfg.LookupURL, cfg.IssuanceURL, abaco.Options{
		DefaultRegion: cfg.DefaultRegionCode,
		Executor:      executor,
		Metrics:       appMetrics,
	})

	dialogue := usecase.NewDialogueUseCase(
		store,
		abaco.NewEntityLookup(backend),
		abaco.NewDocumentIssuer(backend),
		messenger,
		audit,
		logger,
		usecase.Limits{
			DisplayLimit:       cfg.EntityDisplayLimit,
			LookupTimeout:      time.Duration(cfg.LookupTimeoutSeconds) * time.Second,
			IssuanceTimeout:    time.Duration(cfg.IssuanceTimeoutSeconds) * time.Second,
			ProductKeyOverride: cfg.ProductKeyOverride,
		},
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Messenger: messenger,
		Dialogue:  dialogue,
		Metrics:   appMetrics,

		closeFn: func() {
			messenger.Close()
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

// HandleInbound is the instrumented entrypoint the messenger feeds.
func (a *App) HandleInbound(ctx context.Context, identity, text string) {
	start := time.Now()
	err := a.Dialogue.HandleMessage(ctx, identity, text)
	a.Metrics.ObserveMessage(time.Since(start), err)
	if err != nil {
		a.Logger.Error("handle_message_failed", "identity", identity, "error", err)
	}
}

// StatusHandler serves liveness, readiness and metrics.
func (a *App) StatusHandler() http.Handler {
	return httpadapter.NewRouter(a.Messenger.Connected, a.Metrics.Handler()).Handler()
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
