package handlers

import (
	"log/slog"

	"github.com/dsoares/relaybot/internal/config"
	"github.com/dsoares/relaybot/internal/database"
	"github.com/dsoares/relaybot/internal/gemini"
	"github.com/dsoares/relaybot/internal/search"
)

// HandlerDeps provides dependencies for the update handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	GeminiClient gemini.Client
	SearchClient search.Client
}
