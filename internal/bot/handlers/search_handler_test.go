package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/dsoares/relaybot/internal/search"
)

func TestSearchHandlerSuccess(t *testing.T) {
	t.Parallel()

	deps, tg, store, ai, searcher := newTestDeps()
	searcher.results = []search.Result{
		{Title: "The Rust Book", Link: "https://doc.rust-lang.org/book/ownership.html"},
		{Title: "Ownership Explained", Link: "https://example.com/ownership"},
		{Title: "Borrow Checker Notes", Link: "https://example.com/borrow"},
	}
	ai.reply = "Summary text"
	handle := NewSearchHandler(deps)

	handle(context.Background(), tg, textUpdate(7, "/websearch rust ownership"))

	if searcher.lastQuery != "rust ownership" {
		t.Errorf("query = %q, want %q", searcher.lastQuery, "rust ownership")
	}
	if !strings.Contains(ai.lastPrompt, "rust ownership") || !strings.Contains(ai.lastPrompt, "https://example.com/borrow") {
		t.Errorf("summary prompt missing query or results: %q", ai.lastPrompt)
	}

	if len(tg.sent) != 1 {
		t.Fatalf("expected a single reply, got %d", len(tg.sent))
	}
	reply := tg.sent[0].Text
	for _, want := range []string{
		searchResultsHeading,
		searchSummaryHeading,
		"The Rust Book\nhttps://doc.rust-lang.org/book/ownership.html",
		"Summary text",
	} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}

	if len(store.turns) != 1 {
		t.Fatalf("expected exactly one turn, got %d", len(store.turns))
	}
	turn := store.turns[0]
	if turn.ChatID != 7 || turn.UserInput != "rust ownership" || turn.BotResponse != "Summary text" {
		t.Errorf("turn = %+v, want {7 rust ownership Summary text}", turn)
	}
}

func TestSearchHandlerSearchFailure(t *testing.T) {
	t.Parallel()

	deps, tg, store, _, searcher := newTestDeps()
	searcher.err = search.ErrNoResults
	handle := NewSearchHandler(deps)

	handle(context.Background(), tg, textUpdate(7, "/websearch rust ownership"))

	if len(tg.sent) != 1 || tg.sent[0].Text != "search error" {
		t.Errorf("sent = %+v, want the search apology", tg.sent)
	}
	if len(store.turns) != 0 {
		t.Errorf("expected no turn on failure, got %d", len(store.turns))
	}
}

func TestSearchHandlerSummaryFailure(t *testing.T) {
	t.Parallel()

	deps, tg, store, ai, searcher := newTestDeps()
	searcher.results = []search.Result{{Title: "A", Link: "https://example.com/a"}}
	ai.err = context.DeadlineExceeded
	handle := NewSearchHandler(deps)

	handle(context.Background(), tg, textUpdate(7, "/websearch rust ownership"))

	if len(tg.sent) != 1 || tg.sent[0].Text != "search error" {
		t.Errorf("sent = %+v, want the search apology", tg.sent)
	}
	if len(store.turns) != 0 {
		t.Errorf("expected no turn on failure, got %d", len(store.turns))
	}
}

func TestRenderResults(t *testing.T) {
	t.Parallel()

	results := []search.Result{
		{Title: "One", Link: "https://a"},
		{Title: "Two", Link: "https://b"},
		{Title: "Three", Link: "https://c"},
		{Title: "Four", Link: "https://d"},
	}

	got := renderResults(results, 3)
	want := "One\nhttps://a\n\nTwo\nhttps://b\n\nThree\nhttps://c"
	if got != want {
		t.Errorf("renderResults() = %q, want %q", got, want)
	}

	if got := renderResults(nil, 3); got != "" {
		t.Errorf("renderResults(nil) = %q, want empty", got)
	}
}
