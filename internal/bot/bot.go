// Package bot implements the application orchestrator: it owns the Telegram
// update listener (long polling or webhook) and the task scheduler, and ties
// their lifecycles together.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/dsoares/relaybot/internal/config"
	"github.com/dsoares/relaybot/internal/database"
	"github.com/dsoares/relaybot/internal/gemini"
	"github.com/dsoares/relaybot/internal/search"
)

const webhookShutdownTimeout = 5 * time.Second

// Bot represents the application and manages its components' lifecycle.
type Bot struct {
	logger       *slog.Logger
	cfg          *config.Config
	db           *sqlx.DB
	store        database.Store
	geminiClient gemini.Client
	searchClient search.Client
	tgBot        *tgbot.Bot
	scheduler    *Scheduler
}

// NewBot creates the application orchestrator with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.Store,
	geminiClient gemini.Client,
	searchClient search.Client,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
) *Bot {
	return &Bot{
		logger:       logger.With("component", "orchestrator"),
		cfg:          cfg,
		db:           db,
		store:        store,
		geminiClient: geminiClient,
		searchClient: searchClient,
		tgBot:        tgBot,
		scheduler:    scheduler,
	}
}

// Run starts the update listener and the scheduler, blocking until the
// context is cancelled or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if b.cfg.Telegram.WebhookURL != "" {
			return b.runWebhook(gCtx)
		}
		return b.runPolling(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			b.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Orchestrator stopped gracefully")
	return nil
}

// runPolling runs the long-poll update loop until the context is cancelled.
func (b *Bot) runPolling(ctx context.Context) error {
	b.logger.Info("Starting Telegram long-poll listener")

	b.tgBot.Start(ctx)
	b.logger.Info("Telegram listener stopped")

	if ctx.Err() == nil {
		return fmt.Errorf("telegram listener stopped unexpectedly")
	}
	return nil
}

// runWebhook registers the webhook with Telegram and serves the update
// endpoint. The HTTP handler acknowledges receipt independently of handler
// completion; handlers run on the bot's worker pool.
func (b *Bot) runWebhook(ctx context.Context) error {
	b.logger.Info("Starting Telegram webhook listener",
		"url", b.cfg.Telegram.WebhookURL, "addr", b.cfg.Telegram.ListenAddr)

	if _, err := b.tgBot.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: b.cfg.Telegram.WebhookURL}); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	srv := &http.Server{
		Addr:    b.cfg.Telegram.ListenAddr,
		Handler: b.tgBot.WebhookHandler(),
	}

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe()
	}()

	go b.tgBot.StartWebhook(ctx)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), webhookShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			b.logger.Error("Error shutting down webhook server", "error", err)
		}
		b.logger.Info("Webhook listener stopped")
		return nil
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return fmt.Errorf("webhook server stopped unexpectedly")
	}
}
