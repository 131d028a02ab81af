// Package handlers contains the update router and the handlers bound to each
// update category, along with their shared helpers.
package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Commands recognized by the classifier.
const (
	StartCommand  = "/start"
	SearchCommand = "/websearch"
)

// Route identifies the handler category an inbound update belongs to.
type Route int

const (
	// RouteNone means the update is ignored: no handler, no reply.
	RouteNone Route = iota
	// RouteRegister handles the /start registration command.
	RouteRegister
	// RouteContact handles a shared contact.
	RouteContact
	// RouteSearch handles /websearch with a non-empty query.
	RouteSearch
	// RouteImage handles a photo message.
	RouteImage
	// RouteChat handles any other non-empty text.
	RouteChat
)

// Classify determines the route for an inbound update. The checks are ordered
// and mutually exclusive; the first match wins. Updates without a message, or
// with a message carrying neither text, contact, nor photo, are ignored.
func Classify(update *models.Update) Route {
	if update == nil || update.Message == nil {
		return RouteNone
	}

	msg := update.Message
	switch {
	case isCommand(msg.Text, StartCommand):
		return RouteRegister
	case msg.Contact != nil:
		return RouteContact
	case isCommand(msg.Text, SearchCommand) && commandArgs(msg.Text) != "":
		return RouteSearch
	case len(msg.Photo) > 0:
		return RouteImage
	case strings.TrimSpace(msg.Text) != "":
		return RouteChat
	default:
		return RouteNone
	}
}

// isCommand reports whether text starts with the given command, allowing an
// optional @botname suffix and trailing arguments ("/start", "/start@relay",
// "/websearch rust ownership").
func isCommand(text, command string) bool {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, command) {
		return false
	}

	rest := text[len(command):]
	if rest == "" {
		return true
	}
	switch rest[0] {
	case ' ', '\t', '\n':
		return true
	case '@':
		return true
	default:
		return false
	}
}

// commandArgs returns the trimmed text following the command word, or "".
func commandArgs(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 2 {
		return ""
	}
	return strings.Join(fields[1:], " ")
}

// handlerFunc is the internal handler signature. Handlers receive the
// Telegram API through the narrow telegramAPI interface so tests can fake it.
type handlerFunc func(ctx context.Context, tg telegramAPI, update *models.Update)

// Router dispatches classified updates through an explicit route table.
type Router struct {
	deps  HandlerDeps
	table map[Route]handlerFunc
}

// NewRouter builds the route table binding each update category to its
// handler.
func NewRouter(deps HandlerDeps) *Router {
	return &Router{
		deps: deps,
		table: map[Route]handlerFunc{
			RouteRegister: NewStartHandler(deps),
			RouteContact:  NewContactHandler(deps),
			RouteSearch:   NewSearchHandler(deps),
			RouteImage:    NewImageHandler(deps),
			RouteChat:     NewChatHandler(deps),
		},
	}
}

// Handler adapts the router to the go-telegram/bot handler signature, for
// registration as the bot's default handler.
func (r *Router) Handler() bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		r.Dispatch(ctx, b, update)
	}
}

// Dispatch classifies the update and invokes the bound handler, if any.
func (r *Router) Dispatch(ctx context.Context, tg telegramAPI, update *models.Update) {
	route := Classify(update)
	if route == RouteNone {
		r.deps.Logger.DebugContext(ctx, "Ignoring unroutable update", "update_id", updateID(update))
		return
	}

	handler, ok := r.table[route]
	if !ok {
		r.deps.Logger.ErrorContext(ctx, "No handler bound for route", "route", route, "update_id", updateID(update))
		return
	}

	handler(ctx, tg, update)
}

func updateID(update *models.Update) int64 {
	if update == nil {
		return 0
	}
	return update.ID
}
