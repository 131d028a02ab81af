package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dsoares/relaybot/internal/database"
)

const (
	fileDownloadTimeout = 30 * time.Second
	sendMessageTimeout  = 10 * time.Second
	dbSaveTimeout       = 5 * time.Second

	maxDownloadSize = 10 * 1024 * 1024
)

// telegramAPI is the slice of the go-telegram/bot API the handlers use.
// *bot.Bot satisfies it; tests substitute a fake.
type telegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// sendText sends a plain text message, logging failures.
func sendText(ctx context.Context, tg telegramAPI, log *slog.Logger, chatID int64, text string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()

	if _, err := tg.SendMessage(sendCtx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}

// saveTurn appends a conversation turn best-effort. It runs after the reply
// has been sent; failures are logged and never surfaced to the user.
func saveTurn(ctx context.Context, deps HandlerDeps, log *slog.Logger, chatID int64, userInput, botResponse string) {
	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	defer cancel()

	turn := &database.ConversationTurn{
		ChatID:      chatID,
		UserInput:   userInput,
		BotResponse: botResponse,
	}
	if err := deps.Store.SaveTurn(dbCtx, turn); err != nil {
		log.ErrorContext(ctx, "Failed to save conversation turn", "error", err, "chat_id", chatID)
		return
	}

	log.DebugContext(ctx, "Conversation turn saved", "chat_id", chatID, "turn_id", turn.ID)
}

// mimeFromPath infers an image MIME type from the file path suffix.
func mimeFromPath(path string) string {
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".png"):
		return "image/png"
	case strings.HasSuffix(strings.ToLower(path), ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// downloadFile fetches the file at url, capped at maxDownloadSize bytes.
func downloadFile(ctx context.Context, url string) (data []byte, err error) {
	downloadCtx, cancel := context.WithTimeout(ctx, fileDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d downloading file", resp.StatusCode)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("received empty file data")
	}

	return data, nil
}
