package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cgast/dialogcheck/pkg/runner"
)

func newTestStore(t *testing.T, opts ...Option) *BoltStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewBoltStore(path, opts...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func makeReport(suite string, minute int, passed ...bool) runner.Report {
	r := runner.Report{
		Suite:      suite,
		StartedAt:  base.Add(time.Duration(minute) * time.Minute),
		FinishedAt: base.Add(time.Duration(minute)*time.Minute + 3*time.Second),
		Passed:     true,
	}
	for i, p := range passed {
		c := runner.CaseReport{Name: string(rune('a' + i)), Query: "q", Passed: p, Intent: "welcome"}
		if !p {
			r.Passed = false
			c.Failures = []runner.Failure{{Type: "intent", Expected: "welcome", Explanation: "Expected intent"}}
		}
		r.Cases = append(r.Cases, c)
	}
	return r
}

func TestBoltStoreSaveGet(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Save(makeReport("pizza", 0, true, false))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated id")
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.ID != id || got.Suite != "pizza" {
		t.Errorf("got %s/%s, want %s/pizza", got.ID, got.Suite, id)
	}
	if len(got.Cases) != 2 || got.Cases[1].Failures[0].Explanation != "Expected intent" {
		t.Errorf("cases not round-tripped: %+v", got.Cases)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base)
	}
}

func TestBoltStoreSaveKeepsID(t *testing.T) {
	store := newTestStore(t)
	r := makeReport("pizza", 0, true)
	r.ID = "fixed-id"

	id, err := store.Save(r)
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if id != "fixed-id" {
		t.Errorf("id = %q, want fixed-id", id)
	}
}

func TestBoltStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoltStoreListAndLatest(t *testing.T) {
	store := newTestStore(t)

	// Saved out of order; listing sorts by start time.
	for _, r := range []runner.Report{
		makeReport("pizza", 2, true, true),
		makeReport("pizza", 0, false),
		makeReport("pasta", 1, true),
		makeReport("pizza", 1, true, false),
	} {
		if _, err := store.Save(r); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}

	entries, err := store.List("pizza")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 pizza runs, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].StartedAt.Before(entries[i-1].StartedAt) {
			t.Errorf("entries not sorted: %v before %v", entries[i-1].StartedAt, entries[i].StartedAt)
		}
	}
	if entries[1].Passed != 1 || entries[1].Failed != 1 {
		t.Errorf("entry counts = %d/%d, want 1/1", entries[1].Passed, entries[1].Failed)
	}
	if entries[0].Duration != 3*time.Second {
		t.Errorf("Duration = %v", entries[0].Duration)
	}

	all, err := store.List("")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 runs overall, got %d", len(all))
	}

	latest, err := store.Latest("pizza")
	if err != nil {
		t.Fatalf("Latest error: %v", err)
	}
	if !latest.StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("Latest started at %v", latest.StartedAt)
	}
}

func TestBoltStoreSuitePrefixIsolation(t *testing.T) {
	store := newTestStore(t)
	store.Save(makeReport("pizza", 0, true))
	store.Save(makeReport("pizza-extra", 0, true))

	entries, err := store.List("pizza")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 run, got %d", len(entries))
	}
}

func TestBoltStoreLatestEmpty(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Latest("pizza")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBoltStorePrune(t *testing.T) {
	store := newTestStore(t, WithMaxEntries(2))

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := store.Save(makeReport("pizza", i, true))
		if err != nil {
			t.Fatalf("Save error: %v", err)
		}
		ids = append(ids, id)
	}
	store.Save(makeReport("pasta", 0, true))

	entries, _ := store.List("pizza")
	if len(entries) != 2 {
		t.Fatalf("expected 2 runs after prune, got %d", len(entries))
	}
	if entries[0].ID != ids[2] || entries[1].ID != ids[3] {
		t.Errorf("expected the newest runs to survive, got %s, %s", entries[0].ID, entries[1].ID)
	}
	if _, err := store.Get(ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("pruned run still readable: %v", err)
	}
	if others, _ := store.List("pasta"); len(others) != 1 {
		t.Errorf("prune touched another suite: %d runs", len(others))
	}
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := store.Save(makeReport("pizza", 0, true))
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	store, err = NewBoltStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.Get(id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}
