package database

import (
	"database/sql"
	"time"
)

// User represents a registered conversation partner, keyed by the Telegram
// chat ID. PhoneNumber is set only after the user shares their contact.
type User struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID      int64          `db:"chat_id"`
	FirstName   string         `db:"first_name"`
	Username    string         `db:"username"`
	PhoneNumber sql.NullString `db:"phone_number"`
}

// ConversationTurn is one persisted exchange: the user's input (raw text, or
// the sentinel "image" for photo messages) and the generated response.
// Turns are append-only and never updated.
type ConversationTurn struct {
	ID          uint      `db:"id"`
	ChatID      int64     `db:"chat_id"`
	UserInput   string    `db:"user_input"`
	BotResponse string    `db:"bot_response"`
	CreatedAt   time.Time `db:"created_at"`
}
