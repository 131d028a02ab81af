package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// imageTurnInput is the sentinel stored as user_input for photo messages.
const imageTurnInput = "image"

// NewImageHandler returns the handler for photo messages.
func NewImageHandler(deps HandlerDeps) handlerFunc {
	return imageHandler{deps}.Handle
}

type imageHandler struct {
	deps HandlerDeps
}

func (h imageHandler) Handle(ctx context.Context, tg telegramAPI, update *models.Update) {
	log := h.deps.Logger.With("handler", "image")

	msg := update.Message
	if msg == nil || len(msg.Photo) == 0 {
		log.WarnContext(ctx, "Image handler received update without photos", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling image message", "chat_id", chatID, "photo_count", len(msg.Photo))

	// Telegram orders photo sizes smallest to largest; take the last one.
	photo := msg.Photo[len(msg.Photo)-1]

	file, err := tg.GetFile(ctx, &bot.GetFileParams{FileID: photo.FileID})
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve photo file", "error", err, "chat_id", chatID, "file_id", photo.FileID)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.ImageError)
		return
	}

	mimeType := mimeFromPath(file.FilePath)

	data, err := downloadFile(ctx, tg.FileDownloadLink(file))
	if err != nil {
		log.ErrorContext(ctx, "Photo download failed", "error", err, "chat_id", chatID, "file_id", photo.FileID)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.ImageError)
		return
	}

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	description, err := h.deps.GeminiClient.DescribeImage(aiCtx, mimeType, data)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Image description failed", "error", err, "chat_id", chatID)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.ImageError)
		return
	}

	sendText(ctx, tg, log, chatID, "🖼 "+description)

	saveTurn(ctx, h.deps, log, chatID, imageTurnInput, description)
}
