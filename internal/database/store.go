package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. All methods accept a
// context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetUser retrieves a user by chat ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, chatID int64) (*User, error)

	// SaveUser inserts a new user or updates the name fields of an existing
	// one, keyed by chat ID. The phone number is left untouched on update.
	SaveUser(ctx context.Context, user *User) error

	// SetUserPhone stores the user's phone number, creating the user row if
	// it does not exist yet. Repeated calls overwrite the stored number.
	SetUserPhone(ctx context.Context, chatID int64, phoneNumber string) error

	// SaveTurn appends a conversation turn. Turns are never updated.
	SaveTurn(ctx context.Context, turn *ConversationTurn) error

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx. It requires a connected sqlx.DB
// instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetUser(ctx context.Context, chatID int64) (*User, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	query := `SELECT id, created_at, updated_at, chat_id, first_name, username, phone_number
	          FROM users WHERE chat_id = ?`

	err := s.db.GetContext(ctx, &user, query, chatID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "chat_id", chatID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get user for chat %d: %w", chatID, err)
	}

	return &user, nil
}

func (s *sqlxStore) SaveUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	if user.ChatID == 0 {
		return fmt.Errorf("user must have a non-zero chat_id")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
        INSERT INTO users (chat_id, first_name, username, created_at, updated_at)
        VALUES (:chat_id, :first_name, :username, :created_at, :updated_at)
        ON CONFLICT(chat_id) DO UPDATE SET
            first_name = excluded.first_name,
            username   = excluded.username,
            updated_at = excluded.updated_at;
    `

	result, err := s.db.NamedExecContext(ctx, query, user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving user", "chat_id", user.ChatID, "error", err)
		return fmt.Errorf("failed to save user for chat %d: %w", user.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		user.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "User saved", "chat_id", user.ChatID)
	return nil
}

func (s *sqlxStore) SetUserPhone(ctx context.Context, chatID int64, phoneNumber string) error {
	if chatID == 0 {
		return fmt.Errorf("chat_id cannot be zero")
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO users (chat_id, first_name, username, phone_number, created_at, updated_at)
        VALUES (?, '', '', ?, ?, ?)
        ON CONFLICT(chat_id) DO UPDATE SET
            phone_number = excluded.phone_number,
            updated_at   = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, chatID, phoneNumber, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error saving phone number", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to save phone number for chat %d: %w", chatID, err)
	}

	s.logger.DebugContext(ctx, "Phone number saved", "chat_id", chatID)
	return nil
}

func (s *sqlxStore) SaveTurn(ctx context.Context, turn *ConversationTurn) error {
	if turn == nil {
		return fmt.Errorf("cannot save nil conversation turn")
	}
	if turn.ChatID == 0 {
		return fmt.Errorf("conversation turn must have a non-zero chat_id")
	}
	if turn.UserInput == "" || turn.BotResponse == "" {
		return fmt.Errorf("conversation turn must have non-empty input and response")
	}

	turn.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO conversation_turns (chat_id, user_input, bot_response, created_at)
        VALUES (:chat_id, :user_input, :bot_response, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, turn)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving conversation turn", "chat_id", turn.ChatID, "error", err)
		return fmt.Errorf("failed to save conversation turn for chat %d: %w", turn.ChatID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		turn.ID = uint(id)
	}

	s.logger.DebugContext(ctx, "Conversation turn saved", "chat_id", turn.ChatID, "turn_id", turn.ID)
	return nil
}

// RunMaintenance executes VACUUM. SQLite requires VACUUM to run outside a
// transaction.
func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
