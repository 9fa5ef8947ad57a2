package testsupport

import (
	"context"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/journal"
	"reelsmith/internal/worklist"
)

// MustOpenJournal opens a journal.Store for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddItem creates a new pending work item for tests using the provided store.
func AddItem(t testing.TB, store *journal.Store, id, topic string) *worklist.Item {
	t.Helper()

	item, err := store.Add(context.Background(), worklist.Item{ID: id, Topic: topic})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return item
}
