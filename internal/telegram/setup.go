// Package telegram handles construction of the Telegram bot instance and
// registration of the bot's command menu.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTelegramBot creates a new Telegram bot instance using the
// go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot instance created")
	return b, nil
}

// SetCommands publishes the bot's command menu so clients can offer
// command completion.
func SetCommands(ctx context.Context, b *bot.Bot, logger *slog.Logger) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "Register and start a conversation"},
		{Command: "websearch", Description: "Search the web and summarize the results"},
	}

	if _, err := b.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	logger.Info("Registered bot command menu", "count", len(commands))
	return nil
}
