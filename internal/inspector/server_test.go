package inspector

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgast/dialogcheck/pkg/events"
	"github.com/cgast/dialogcheck/pkg/history"
	"github.com/cgast/dialogcheck/pkg/runner"
)

func publishRun(bus events.EventBus) {
	bus.Publish(events.NewEvent(events.EventSuiteStart, map[string]any{"suite": "pizza", "case_count": 3}))
	bus.Publish(events.NewEvent(events.EventCaseEnd, true).ForCase("pizza", "greet", 0))
	bus.Publish(events.NewEvent(events.EventQueryError, "timeout").ForCase("pizza", "order", 1))
	bus.Publish(events.NewEvent(events.EventCaseEnd, false).ForCase("pizza", "order", 1))
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestStatus(t *testing.T) {
	bus := events.NewMemoryBus()
	publishRun(bus)
	s := New(bus, nil, nil)

	var st Status
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/status", &st))
	assert.Equal(t, "pizza", st.Suite)
	assert.Equal(t, 3, st.CasesTotal)
	assert.Equal(t, 2, st.CasesDone)
	assert.Equal(t, 1, st.Passed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 1, st.QueryErrs)
	assert.Equal(t, 1, st.Failures)
	assert.False(t, st.Finished)
	assert.Equal(t, 4, st.Events)
}

func TestEventLog(t *testing.T) {
	bus := events.NewMemoryBus()
	s := New(bus, nil, nil)

	var log []events.Event
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/events", &log))
	assert.Empty(t, log)

	publishRun(bus)
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/events", &log))
	require.Len(t, log, 4)
	assert.Equal(t, "order", log[3].Case)
}

func TestRunsWithoutHistory(t *testing.T) {
	s := New(events.NewMemoryBus(), nil, nil)

	var entries []history.Entry
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/runs", &entries))
	assert.Empty(t, entries)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/api/runs/x", nil))
}

func TestRuns(t *testing.T) {
	store, err := history.NewBoltStore(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()
	id, err := store.Save(runner.Report{Suite: "pizza", StartedAt: now, FinishedAt: now, Passed: true,
		Cases: []runner.CaseReport{{Name: "greet", Passed: true}}})
	require.NoError(t, err)
	_, err = store.Save(runner.Report{Suite: "pasta", StartedAt: now, FinishedAt: now})
	require.NoError(t, err)

	s := New(events.NewMemoryBus(), store, nil)

	var entries []history.Entry
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/runs?suite=pizza", &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, 1, entries[0].Passed)

	var report runner.Report
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/api/runs/"+id, &report))
	assert.Equal(t, "pizza", report.Suite)

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/api/runs/missing", nil))
}

func TestEventStream(t *testing.T) {
	bus := events.NewMemoryBus()
	bus.Publish(events.NewEvent(events.EventSuiteStart, map[string]any{"suite": "pizza", "case_count": 1}))

	s := New(bus, nil, nil)
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "data: ") {
				lines <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(lines)
	}()

	next := func() events.Event {
		t.Helper()
		select {
		case line := <-lines:
			var ev events.Event
			require.NoError(t, json.Unmarshal([]byte(line), &ev))
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return events.Event{}
		}
	}

	assert.Equal(t, events.EventSuiteStart, next().Type, "history is replayed first")

	// The client registers after replaying history; publish until it is seen.
	deadline := time.After(2 * time.Second)
	for {
		bus.Publish(events.NewEvent(events.EventCaseEnd, true).ForCase("pizza", "greet", 0))
		select {
		case line := <-lines:
			var ev events.Event
			require.NoError(t, json.Unmarshal([]byte(line), &ev))
			assert.Equal(t, events.EventCaseEnd, ev.Type)
			assert.Equal(t, "greet", ev.Case)
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("live event never arrived")
		}
	}
}

// racingBus publishes an event while the first history snapshot is taken, so
// the event reaches a freshly registered client both ways.
type racingBus struct {
	*events.MemoryBus
	once sync.Once
}

func (b *racingBus) History(since time.Time) []events.Event {
	b.once.Do(func() {
		b.Publish(events.NewEvent(events.EventCaseStart, nil).ForCase("pizza", "between", 1))
	})
	return b.MemoryBus.History(since)
}

func streamEvents(t *testing.T, addr string) <-chan events.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	out := make(chan events.Event, 16)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var ev events.Event
			if json.Unmarshal([]byte(line), &ev) == nil {
				out <- ev
			}
		}
	}()
	return out
}

func TestEventStreamSkipsReplayedEvents(t *testing.T) {
	bus := &racingBus{MemoryBus: events.NewMemoryBus()}
	bus.Publish(events.NewEvent(events.EventSuiteStart, map[string]any{"suite": "pizza", "case_count": 2}))

	s := New(bus, nil, nil)
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})

	stream := streamEvents(t, addr)
	next := func() events.Event {
		t.Helper()
		select {
		case ev := <-stream:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return events.Event{}
		}
	}

	assert.Equal(t, events.EventSuiteStart, next().Type)
	assert.Equal(t, "between", next().Case)

	bus.Publish(events.NewEvent(events.EventCaseEnd, true).ForCase("pizza", "greet", 0))
	ev := next()
	assert.Equal(t, events.EventCaseEnd, ev.Type, "the event sent during replay must not repeat")
	assert.Equal(t, uint64(3), ev.Seq)
}
