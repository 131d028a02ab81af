package handlers

import (
	"context"

	"github.com/go-telegram/bot/models"
)

// NewContactHandler returns the handler for shared contacts.
func NewContactHandler(deps HandlerDeps) handlerFunc {
	return contactHandler{deps}.Handle
}

type contactHandler struct {
	deps HandlerDeps
}

func (h contactHandler) Handle(ctx context.Context, tg telegramAPI, update *models.Update) {
	log := h.deps.Logger.With("handler", "contact")

	msg := update.Message
	if msg == nil || msg.Contact == nil {
		log.WarnContext(ctx, "Contact handler received update without contact", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling shared contact", "chat_id", chatID)

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	err := h.deps.Store.SetUserPhone(dbCtx, chatID, msg.Contact.PhoneNumber)
	cancel()
	if err != nil {
		// Persistence failure never blocks the reply; the user can share
		// the contact again.
		log.ErrorContext(ctx, "Failed to save phone number", "error", err, "chat_id", chatID)
	}

	sendText(ctx, tg, log, chatID, h.deps.Config.Messages.ContactSaved)
}
