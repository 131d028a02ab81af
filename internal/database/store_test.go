package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := ApplyMigrations(db.DB, ":memory:"); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return NewStore(db, nil)
}

func TestGetUserAbsent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user != nil {
		t.Errorf("GetUser() = %+v, want nil for an unknown chat", user)
	}
}

func TestSaveUserUpsert(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveUser(ctx, &User{ChatID: 42, FirstName: "Ana", Username: "ana"}); err != nil {
		t.Fatalf("SaveUser() first insert: %v", err)
	}

	first, err := store.GetUser(ctx, 42)
	if err != nil || first == nil {
		t.Fatalf("GetUser() after insert: user=%v err=%v", first, err)
	}
	if first.FirstName != "Ana" || first.Username != "ana" {
		t.Errorf("stored user = %+v, want Ana/ana", first)
	}

	// Saving again for the same chat updates in place.
	if err := store.SaveUser(ctx, &User{ChatID: 42, FirstName: "Anabela", Username: "anabela"}); err != nil {
		t.Fatalf("SaveUser() upsert: %v", err)
	}

	second, err := store.GetUser(ctx, 42)
	if err != nil || second == nil {
		t.Fatalf("GetUser() after upsert: user=%v err=%v", second, err)
	}
	if second.ID != first.ID {
		t.Errorf("upsert created a new row: id %d -> %d", first.ID, second.ID)
	}
	if second.FirstName != "Anabela" || second.Username != "anabela" {
		t.Errorf("updated user = %+v, want Anabela/anabela", second)
	}
}

func TestSaveUserKeepsPhoneNumber(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveUser(ctx, &User{ChatID: 42, FirstName: "Ana"}); err != nil {
		t.Fatalf("SaveUser(): %v", err)
	}
	if err := store.SetUserPhone(ctx, 42, "+15551234"); err != nil {
		t.Fatalf("SetUserPhone(): %v", err)
	}

	// A later name update must not clear the stored phone.
	if err := store.SaveUser(ctx, &User{ChatID: 42, FirstName: "Anabela"}); err != nil {
		t.Fatalf("SaveUser() upsert: %v", err)
	}

	user, err := store.GetUser(ctx, 42)
	if err != nil || user == nil {
		t.Fatalf("GetUser(): user=%v err=%v", user, err)
	}
	if !user.PhoneNumber.Valid || user.PhoneNumber.String != "+15551234" {
		t.Errorf("phone = %+v, want +15551234 preserved", user.PhoneNumber)
	}
}

func TestSetUserPhone(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// Works even before any /start created the row.
	if err := store.SetUserPhone(ctx, 42, "+15551234"); err != nil {
		t.Fatalf("SetUserPhone() insert: %v", err)
	}
	if err := store.SetUserPhone(ctx, 42, "+15559999"); err != nil {
		t.Fatalf("SetUserPhone() overwrite: %v", err)
	}

	user, err := store.GetUser(ctx, 42)
	if err != nil || user == nil {
		t.Fatalf("GetUser(): user=%v err=%v", user, err)
	}
	if !user.PhoneNumber.Valid || user.PhoneNumber.String != "+15559999" {
		t.Errorf("phone = %+v, want the latest value +15559999", user.PhoneNumber)
	}
}

func TestSaveTurnAppends(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	turns := []*ConversationTurn{
		{ChatID: 7, UserInput: "hello", BotResponse: "hi there"},
		{ChatID: 7, UserInput: "rust ownership", BotResponse: "Summary text"},
	}
	for i, turn := range turns {
		if err := store.SaveTurn(ctx, turn); err != nil {
			t.Fatalf("SaveTurn(%d): %v", i, err)
		}
		if turn.ID == 0 {
			t.Errorf("turn %d has no assigned ID", i)
		}
		if turn.CreatedAt.IsZero() {
			t.Errorf("turn %d has no creation time", i)
		}
	}
	if turns[1].ID == turns[0].ID {
		t.Errorf("turns share ID %d, want distinct rows", turns[0].ID)
	}
}

func TestSaveTurnRejectsIncomplete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	tests := []*ConversationTurn{
		{ChatID: 7, UserInput: "", BotResponse: "hi"},
		{ChatID: 7, UserInput: "hello", BotResponse: ""},
	}
	for i, turn := range tests {
		if err := store.SaveTurn(ctx, turn); err == nil {
			t.Errorf("SaveTurn(%d) accepted an incomplete turn: %+v", i, turn)
		}
	}
}

func TestRunMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	if err := store.RunMaintenance(context.Background()); err != nil {
		t.Fatalf("RunMaintenance(): %v", err)
	}
}
