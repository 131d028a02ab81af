package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/dsoares/relaybot/internal/config"
	"github.com/dsoares/relaybot/internal/database"
	"github.com/dsoares/relaybot/internal/search"
)

// fakeTelegram records sent messages and serves canned file lookups.
type fakeTelegram struct {
	sent    []*bot.SendMessageParams
	sendErr error

	file         *models.File
	fileErr      error
	requestedIDs []string

	downloadBase string
}

func (f *fakeTelegram) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

func (f *fakeTelegram) GetFile(_ context.Context, params *bot.GetFileParams) (*models.File, error) {
	f.requestedIDs = append(f.requestedIDs, params.FileID)
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	return f.file, nil
}

func (f *fakeTelegram) FileDownloadLink(file *models.File) string {
	return f.downloadBase + "/" + file.FilePath
}

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	users map[int64]*database.User
	turns []database.ConversationTurn

	saveUserCalls int

	getErr   error
	saveErr  error
	phoneErr error
	turnErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[int64]*database.User)}
}

func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) GetUser(_ context.Context, chatID int64) (*database.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.users[chatID], nil
}

func (s *fakeStore) SaveUser(_ context.Context, user *database.User) error {
	s.saveUserCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	if existing, ok := s.users[user.ChatID]; ok {
		existing.FirstName = user.FirstName
		existing.Username = user.Username
		return nil
	}
	copied := *user
	copied.ID = uint(len(s.users) + 1)
	s.users[user.ChatID] = &copied
	return nil
}

func (s *fakeStore) SetUserPhone(_ context.Context, chatID int64, phoneNumber string) error {
	if s.phoneErr != nil {
		return s.phoneErr
	}
	user, ok := s.users[chatID]
	if !ok {
		user = &database.User{ID: uint(len(s.users) + 1), ChatID: chatID}
		s.users[chatID] = user
	}
	user.PhoneNumber.String = phoneNumber
	user.PhoneNumber.Valid = true
	return nil
}

func (s *fakeStore) SaveTurn(_ context.Context, turn *database.ConversationTurn) error {
	if s.turnErr != nil {
		return s.turnErr
	}
	turn.ID = uint(len(s.turns) + 1)
	s.turns = append(s.turns, *turn)
	return nil
}

func (s *fakeStore) RunMaintenance(context.Context) error { return nil }

// fakeGemini returns canned completions and records the inputs it saw.
type fakeGemini struct {
	reply string
	err   error

	lastPrompt string
	lastMime   string
	lastData   []byte
}

func (g *fakeGemini) Complete(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGemini) DescribeImage(_ context.Context, mimeType string, data []byte) (string, error) {
	g.lastMime = mimeType
	g.lastData = data
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// fakeSearch returns canned results and records the last query.
type fakeSearch struct {
	results []search.Result
	err     error

	lastQuery string
}

func (s *fakeSearch) Search(_ context.Context, query string) ([]search.Result, error) {
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Messages: config.MessagesConfig{
			Welcome:        "welcome",
			WelcomeBack:    "welcome back",
			ContactRequest: "share your contact",
			ContactSaved:   "contact saved",
			ChatError:      "chat error",
			SearchError:    "search error",
			ImageError:     "image error",
		},
	}
}

func newTestDeps() (HandlerDeps, *fakeTelegram, *fakeStore, *fakeGemini, *fakeSearch) {
	tg := &fakeTelegram{}
	store := newFakeStore()
	ai := &fakeGemini{}
	searcher := &fakeSearch{}

	deps := HandlerDeps{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config:       testConfig(),
		Store:        store,
		GeminiClient: ai,
		SearchClient: searcher,
	}
	return deps, tg, store, ai, searcher
}

func textUpdate(chatID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   10,
			Chat: models.Chat{ID: chatID},
			From: &models.User{ID: chatID, FirstName: "Ana", Username: "ana"},
			Text: text,
		},
	}
}

func contactUpdate(chatID int64, phoneNumber string) *models.Update {
	u := textUpdate(chatID, "")
	u.Message.Contact = &models.Contact{PhoneNumber: phoneNumber, FirstName: "Ana"}
	return u
}

func photoUpdate(chatID int64, fileIDs ...string) *models.Update {
	u := textUpdate(chatID, "")
	for _, id := range fileIDs {
		u.Message.Photo = append(u.Message.Photo, models.PhotoSize{FileID: id})
	}
	return u
}
