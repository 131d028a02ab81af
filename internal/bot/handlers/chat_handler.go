package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot/models"
)

const aiProcessingTimeout = 2 * time.Minute

// NewChatHandler returns the handler for free-text messages, which are
// relayed to the AI as a single-turn prompt.
func NewChatHandler(deps HandlerDeps) handlerFunc {
	return chatHandler{deps}.Handle
}

type chatHandler struct {
	deps HandlerDeps
}

func (h chatHandler) Handle(ctx context.Context, tg telegramAPI, update *models.Update) {
	log := h.deps.Logger.With("handler", "chat")

	msg := update.Message
	if msg == nil || msg.Text == "" {
		log.WarnContext(ctx, "Chat handler received update without text", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling chat message", "chat_id", chatID)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	reply, err := h.deps.GeminiClient.Complete(aiCtx, msg.Text)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "AI completion failed", "error", err, "chat_id", chatID)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.ChatError)
		return
	}

	sendText(ctx, tg, log, chatID, reply)

	saveTurn(ctx, h.deps, log, chatID, msg.Text, reply)
}
