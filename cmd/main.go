package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardops/cardtrack/internal/analytics"
	"github.com/cardops/cardtrack/internal/card"
	"github.com/cardops/cardtrack/internal/config"
	"github.com/cardops/cardtrack/internal/httpapi"
	"github.com/cardops/cardtrack/internal/logging"
	"github.com/cardops/cardtrack/internal/pubsub"
	"github.com/cardops/cardtrack/internal/service/lookup"
	"github.com/cardops/cardtrack/internal/service/tracking"
	"github.com/cardops/cardtrack/internal/storage/memory"
	pgstore "github.com/cardops/cardtrack/internal/storage/postgres"
)

// store is the full surface both backends implement.
type store interface {
	tracking.Writer
	lookup.Repo
	httpapi.Repository
	Ready(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	var st store
	var closeFn func()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		st = pg
		logger.Info("storage backend: postgres")
	} else {
		st = memory.New()
		logger.Info("storage backend: memory")
	}

	if cfg.DevSeed {
		if err := devSeed(ctx, st); err != nil {
			logger.Error("dev seed failed", "err", err)
		} else {
			logger.Info("DEV seed loaded", "card_ids", []string{"card-001", "card-002"})
		}
	}

	bus := pubsub.New(logger)
	bus.Subscribe(func(c card.Card) {
		logger.Info("card updated",
			"card_id", c.ID,
			"status", string(c.CurrentStatus),
			"events", len(c.StatusHistory),
		)
	})

	trackingSvc := tracking.New(st, bus)
	lookupSvc := lookup.New(st)

	opts := []httpapi.Option{}
	if cfg.WebhookAPIKey != "" {
		opts = append(opts, httpapi.WithAPIKey(cfg.WebhookAPIKey))
	}
	var stopWatch func()
	if cfg.AnalyticsFile != "" {
		loader, err := analytics.NewLoader(cfg.AnalyticsFile)
		if err != nil {
			logger.Error("failed to load analytics snapshot", "err", err, "path", cfg.AnalyticsFile)
			os.Exit(1)
		}
		if stopWatch, err = loader.Watch(); err != nil {
			logger.Warn("analytics snapshot watch unavailable", "err", err)
		}
		opts = append(opts, httpapi.WithAnalytics(loader))
	}

	api := httpapi.New(trackingSvc, lookupSvc, st, logger, opts...)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("card tracking service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if stopWatch != nil {
		stopWatch()
	}
	if closeFn != nil {
		closeFn()
	}
}

func ts(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// devSeed loads two sample cards for compose/local work: one fully delivered,
// one stuck at a failed quality check.
func devSeed(ctx context.Context, w tracking.Writer) error {
	cards := []card.Card{
		{
			ID:            "card-001",
			CardNumber:    "****-****-****-1234",
			PANLastFour:   "1234",
			CustomerName:  "John Smith",
			MobileNumber:  "9876543210",
			CardType:      "Platinum Credit",
			CurrentStatus: card.StatusDelivered,
			StatusHistory: []card.StatusEvent{
				{ID: "evt-001-1", Status: card.StatusApproved, Timestamp: ts("2025-05-01T10:30:00Z"), Notes: "Card approved after credit check", StatusType: card.StatusTypeSuccess},
				{ID: "evt-001-2", Status: card.StatusCreated, Timestamp: ts("2025-05-02T09:15:00Z"), Notes: "Card created in system", StatusType: card.StatusTypeSuccess},
				{ID: "evt-001-3", Status: card.StatusEmbossingQueued, Timestamp: ts("2025-05-02T14:20:00Z"), Location: "Central Production Facility", StatusType: card.StatusTypeInfo},
				{ID: "evt-001-4", Status: card.StatusEmbossingComplete, Timestamp: ts("2025-05-03T11:45:00Z"), Location: "Central Production Facility", StatusType: card.StatusTypeSuccess},
				{ID: "evt-001-5", Status: card.StatusQualityCheckPassed, Timestamp: ts("2025-05-03T13:10:00Z"), AgentID: "QA-072", StatusType: card.StatusTypeSuccess},
				{ID: "evt-001-6", Status: card.StatusDispatchQueued, Timestamp: ts("2025-05-04T09:30:00Z"), Location: "Distribution Center East", StatusType: card.StatusTypeInfo},
				{ID: "evt-001-7", Status: card.StatusDispatched, Timestamp: ts("2025-05-04T16:20:00Z"), Location: "Distribution Center East", StatusType: card.StatusTypeSuccess},
				{ID: "evt-001-8", Status: card.StatusInTransit, Timestamp: ts("2025-05-05T10:45:00Z"), Location: "Regional Hub Mumbai", StatusType: card.StatusTypeInfo},
				{ID: "evt-001-9", Status: card.StatusDelivered, Timestamp: ts("2025-05-06T14:30:00Z"), Location: "Mumbai", Notes: "Delivered to customer, signature collected", StatusType: card.StatusTypeSuccess},
			},
			IssueDate:  "2025-05-06",
			ExpiryDate: "2030-05-31",
			Address: card.Address{
				Line1:      "123 Main Street",
				Line2:      "Apartment 4B",
				City:       "Mumbai",
				State:      "Maharashtra",
				PostalCode: "400001",
				Country:    "India",
			},
		},
		{
			ID:            "card-002",
			CardNumber:    "****-****-****-5678",
			PANLastFour:   "5678",
			CustomerName:  "Priya Sharma",
			MobileNumber:  "8765432109",
			CardType:      "Gold Debit",
			CurrentStatus: card.StatusQualityCheckFailed,
			StatusHistory: []card.StatusEvent{
				{ID: "evt-002-1", Status: card.StatusApproved, Timestamp: ts("2025-05-03T11:20:00Z"), StatusType: card.StatusTypeSuccess},
				{ID: "evt-002-2", Status: card.StatusCreated, Timestamp: ts("2025-05-04T10:15:00Z"), StatusType: card.StatusTypeSuccess},
				{ID: "evt-002-3", Status: card.StatusEmbossingQueued, Timestamp: ts("2025-05-04T16:40:00Z"), Location: "Central Production Facility", StatusType: card.StatusTypeInfo},
				{ID: "evt-002-4", Status: card.StatusEmbossingComplete, Timestamp: ts("2025-05-05T13:25:00Z"), Location: "Central Production Facility", StatusType: card.StatusTypeSuccess},
				{ID: "evt-002-5", Status: card.StatusQualityCheckFailed, Timestamp: ts("2025-05-05T14:50:00Z"), FailureReason: "Name embossing misalignment", AgentID: "QA-045", Notes: "Requeue for production", StatusType: card.StatusTypeError},
			},
			ExpiryDate: "2030-05-31",
			Address: card.Address{
				Line1:      "45 Park Avenue",
				City:       "Delhi",
				State:      "Delhi",
				PostalCode: "110001",
				Country:    "India",
			},
		},
	}
	for _, c := range cards {
		if _, err := w.InsertCard(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
