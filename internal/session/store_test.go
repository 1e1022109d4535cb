package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// openStores builds one store per backend so the whole contract runs
// against both the in-memory fake and the SQLite implementation.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqliteStore,
	}
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "alice", "what lives here?")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if created.ID == "" {
				t.Fatal("expected a generated session id")
			}

			sess, ok, err := store.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok {
				t.Fatal("expected session to exist")
			}
			if sess.Owner != "alice" {
				t.Errorf("expected owner 'alice', got %q", sess.Owner)
			}
			if len(sess.Interactions) != 1 {
				t.Fatalf("expected exactly one seeded interaction, got %d", len(sess.Interactions))
			}
			if sess.Interactions[0].Query != "what lives here?" {
				t.Errorf("expected seeded query, got %q", sess.Interactions[0].Query)
			}
			if sess.Interactions[0].Response != "" {
				t.Errorf("expected empty seeded response, got %q", sess.Interactions[0].Response)
			}
			if sess.LocationQueryExecuted {
				t.Error("expected location_query_executed to start false")
			}
			if sess.Summary != nil {
				t.Error("expected no cached summary on a fresh session")
			}
		})
	}
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			sess, ok, err := store.Get(ctx, "no-such-session")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if ok || sess != nil {
				t.Error("expected absent session to report ok=false, nil session")
			}
		})
	}
}

func TestAppendInteractionPreservesOrder(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "alice", "first")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			if err := store.AppendInteraction(ctx, created.ID, "second", "answer two"); err != nil {
				t.Fatalf("AppendInteraction failed: %v", err)
			}
			if err := store.AppendInteraction(ctx, created.ID, "third", "answer three"); err != nil {
				t.Fatalf("AppendInteraction failed: %v", err)
			}

			sess, _, err := store.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if len(sess.Interactions) != 3 {
				t.Fatalf("expected 3 interactions, got %d", len(sess.Interactions))
			}
			for i, want := range []string{"first", "second", "third"} {
				if sess.Interactions[i].Query != want {
					t.Errorf("interaction %d: expected query %q, got %q", i, want, sess.Interactions[i].Query)
				}
			}
			if !sess.LastUpdated.After(created.LastUpdated) && !sess.LastUpdated.Equal(created.LastUpdated) {
				t.Error("expected timestamp to be refreshed on append")
			}
		})
	}
}

func TestAppendInteractionUnknownSession(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			err := store.AppendInteraction(ctx, "missing", "q", "r")
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestSetInitialResponse(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "alice", "hello")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			if err := store.SetInitialResponse(ctx, created.ID, "hi there"); err != nil {
				t.Fatalf("SetInitialResponse failed: %v", err)
			}

			sess, _, err := store.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if len(sess.Interactions) != 1 {
				t.Fatalf("expected 1 interaction, got %d", len(sess.Interactions))
			}
			if sess.Interactions[0].Response != "hi there" {
				t.Errorf("expected seeded response to be filled, got %q", sess.Interactions[0].Response)
			}
		})
	}
}

func TestMarkLocationExecutedIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "alice", "q")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			if err := store.MarkLocationExecuted(ctx, created.ID); err != nil {
				t.Fatalf("first MarkLocationExecuted failed: %v", err)
			}
			if err := store.MarkLocationExecuted(ctx, created.ID); err != nil {
				t.Fatalf("second MarkLocationExecuted should be a no-op, got %v", err)
			}

			sess, _, _ := store.Get(ctx, created.ID)
			if !sess.LocationQueryExecuted {
				t.Error("expected flag to be set")
			}

			if err := store.MarkLocationExecuted(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for missing session, got %v", err)
			}
		})
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			created, err := store.Create(ctx, "alice", "q")
			if err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			got, err := store.GetSummary(ctx, created.ID)
			if err != nil {
				t.Fatalf("GetSummary failed: %v", err)
			}
			if got != nil {
				t.Error("expected nil summary before any location query")
			}

			summary := BuildSummary(
				[]SpeciesFact{{Species: "Vulpes vulpes", Image: "http://img/fox.jpg"}},
				[]SpeciesFact{{Species: "Quercus robur"}},
				[]Activity{{Name: "Grand Canyon Hike", GeoCode: GeoCode{Latitude: 36.1, Longitude: -112.1}}},
			)
			if err := store.SaveSummary(ctx, created.ID, summary); err != nil {
				t.Fatalf("SaveSummary failed: %v", err)
			}

			got, err = store.GetSummary(ctx, created.ID)
			if err != nil {
				t.Fatalf("GetSummary failed: %v", err)
			}
			if got == nil {
				t.Fatal("expected saved summary")
			}
			if len(got.Fauna) != 1 || got.Fauna[0].Species != "Vulpes vulpes" {
				t.Errorf("unexpected fauna: %+v", got.Fauna)
			}
			if len(got.TourismActivities) != 1 || got.TourismActivities[0].Name != "Grand Canyon Hike" {
				t.Errorf("unexpected activities: %+v", got.TourismActivities)
			}

			// Session document carries the same summary.
			sess, _, err := store.Get(ctx, created.ID)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if sess.Summary == nil || len(sess.Summary.Flora) != 1 {
				t.Errorf("expected summary on session document, got %+v", sess.Summary)
			}

			if _, err := store.GetSummary(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for missing session, got %v", err)
			}
		})
	}
}

func TestListByOwner(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.Create(ctx, "alice", "one"); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Create(ctx, "alice", "two"); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Create(ctx, "bob", "three"); err != nil {
				t.Fatal(err)
			}

			sessions, err := store.ListByOwner(ctx, "alice")
			if err != nil {
				t.Fatalf("ListByOwner failed: %v", err)
			}
			if len(sessions) != 2 {
				t.Fatalf("expected 2 sessions for alice, got %d", len(sessions))
			}
			for _, sess := range sessions {
				if sess.Owner != "alice" {
					t.Errorf("expected owner 'alice', got %q", sess.Owner)
				}
			}

			sessions, err = store.ListByOwner(ctx, "nobody")
			if err != nil {
				t.Fatalf("ListByOwner failed: %v", err)
			}
			if len(sessions) != 0 {
				t.Errorf("expected no sessions for unknown owner, got %d", len(sessions))
			}
		})
	}
}
