package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dsoares/relaybot/internal/database"
)

// NewStartHandler returns the handler for the /start registration command.
func NewStartHandler(deps HandlerDeps) handlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, tg telegramAPI, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", msg.From.ID)

	user, err := h.deps.Store.GetUser(ctx, chatID)
	if err != nil {
		// Treat a failed lookup as an unknown user: the upsert below is
		// idempotent and the welcome must still be attempted.
		log.ErrorContext(ctx, "User lookup failed, treating as new user", "error", err, "chat_id", chatID)
	}

	if user != nil {
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.WelcomeBack)
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbSaveTimeout)
	newUser := &database.User{
		ChatID:    chatID,
		FirstName: msg.From.FirstName,
		Username:  msg.From.Username,
	}
	if err := h.deps.Store.SaveUser(dbCtx, newUser); err != nil {
		log.ErrorContext(ctx, "Failed to save new user", "error", err, "chat_id", chatID)
	}
	cancel()

	sendText(ctx, tg, log, chatID, h.deps.Config.Messages.Welcome)

	// Second message carries the contact-share keyboard. It is a UI
	// affordance only; the user may never respond.
	sendCtx, cancel := context.WithTimeout(ctx, sendMessageTimeout)
	defer cancel()
	_, err = tg.SendMessage(sendCtx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   h.deps.Config.Messages.ContactRequest,
		ReplyMarkup: models.ReplyKeyboardMarkup{
			Keyboard: [][]models.KeyboardButton{
				{{Text: "📱 Share contact", RequestContact: true}},
			},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send contact request", "error", err, "chat_id", chatID)
	}
}
