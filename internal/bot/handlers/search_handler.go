package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/dsoares/relaybot/internal/gemini"
	"github.com/dsoares/relaybot/internal/search"
)

const searchTimeout = 30 * time.Second

const (
	searchResultsHeading = "🔎 Results"
	searchSummaryHeading = "📝 Summary"
)

// NewSearchHandler returns the handler for the /websearch command.
func NewSearchHandler(deps HandlerDeps) handlerFunc {
	return searchHandler{deps}.Handle
}

type searchHandler struct {
	deps HandlerDeps
}

func (h searchHandler) Handle(ctx context.Context, tg telegramAPI, update *models.Update) {
	log := h.deps.Logger.With("handler", "search")

	msg := update.Message
	if msg == nil {
		log.WarnContext(ctx, "Search handler received update without message", "update_id", update.ID)
		return
	}

	query := commandArgs(msg.Text)
	if query == "" {
		log.WarnContext(ctx, "Search handler received empty query", "update_id", update.ID)
		return
	}

	chatID := msg.Chat.ID
	log.InfoContext(ctx, "Handling search request", "chat_id", chatID, "query", query)

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	results, err := h.deps.SearchClient.Search(searchCtx, query)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Search failed", "error", err, "chat_id", chatID, "query", query)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.SearchError)
		return
	}

	rendered := renderResults(results, 3)

	aiCtx, cancel := context.WithTimeout(ctx, aiProcessingTimeout)
	summary, err := h.deps.GeminiClient.Complete(aiCtx, fmt.Sprintf(gemini.SearchSummaryPrompt, query, rendered))
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Search summary generation failed", "error", err, "chat_id", chatID, "query", query)
		sendText(ctx, tg, log, chatID, h.deps.Config.Messages.SearchError)
		return
	}

	reply := fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s", searchResultsHeading, rendered, searchSummaryHeading, summary)
	sendText(ctx, tg, log, chatID, reply)

	saveTurn(ctx, h.deps, log, chatID, query, summary)
}

// renderResults formats up to max results as "title\nlink" blocks joined by a
// blank line, preserving engine order.
func renderResults(results []search.Result, max int) string {
	if len(results) > max {
		results = results[:max]
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, r.Title+"\n"+r.Link)
	}
	return strings.Join(blocks, "\n\n")
}
