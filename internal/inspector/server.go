// Package inspector serves live progress of a suite run over HTTP: run events
// as Server-Sent Events plus JSON views of the event log and stored runs.
package inspector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	applog "github.com/cgast/dialogcheck/internal/logger"
	"github.com/cgast/dialogcheck/pkg/events"
	"github.com/cgast/dialogcheck/pkg/history"
)

// Server is the inspector HTTP server.
type Server struct {
	bus       events.EventBus
	runs      history.Store
	logger    *slog.Logger
	mux       *http.ServeMux
	clients   map[*sseClient]bool
	clientsMu sync.Mutex
	startTime time.Time

	httpServer *http.Server
	sub        <-chan events.Event
}

// sseClient is one connected event-stream consumer.
type sseClient struct {
	send chan events.Event
}

// New creates an inspector over bus. runs may be nil when history is off.
func New(bus events.EventBus, runs history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	s := &Server{
		bus:       bus,
		runs:      runs,
		logger:    logger,
		mux:       http.NewServeMux(),
		clients:   make(map[*sseClient]bool),
		startTime: time.Now(),
	}

	s.mux.HandleFunc("GET /events", s.handleEvents)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/events", s.handleEventLog)
	s.mux.HandleFunc("GET /api/runs", s.handleRuns)
	s.mux.HandleFunc("GET /api/runs/{id}", s.handleRun)

	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr and serves in the background. It returns the bound
// address, so ":0" picks a free port.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen %s: %w", addr, err)
	}

	s.sub = s.bus.Subscribe()
	go s.broadcastEvents(s.sub)

	s.httpServer = &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("inspector stopped", "error", err)
		}
	}()
	return ln.Addr().String(), nil
}

// Shutdown stops the server and the event fan-out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sub != nil {
		s.bus.Unsubscribe(s.sub)
		s.sub = nil
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) broadcastEvents(ch <-chan events.Event) {
	for ev := range ch {
		s.clientsMu.Lock()
		for client := range s.clients {
			select {
			case client.send <- ev:
			default:
				// Client is slow, drop the event.
			}
		}
		s.clientsMu.Unlock()
	}
}

// handleEvents streams the event log so far, then live events. The client is
// registered before the replay so nothing published in between is lost; live
// events already covered by the replay are skipped by sequence number.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := &sseClient{send: make(chan events.Event, 64)}

	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
	}()

	var replayed uint64
	for _, ev := range s.bus.History(time.Time{}) {
		writeEvent(w, ev)
		replayed = max(replayed, ev.Seq)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-client.send:
			if ev.Seq != 0 && ev.Seq <= replayed {
				continue
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// Status summarises the run in progress.
type Status struct {
	Uptime     string `json:"uptime"`
	Events     int    `json:"events"`
	Suite      string `json:"suite,omitempty"`
	CasesDone  int    `json:"cases_done"`
	CasesTotal int    `json:"cases_total"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	QueryErrs  int    `json:"query_errors"`
	Failures   int    `json:"failures"`
	Finished   bool   `json:"finished"`
}

func (s *Server) status() Status {
	log := s.bus.History(time.Time{})
	st := Status{
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		Events: len(log),
	}
	for _, ev := range log {
		if ev.Failed() {
			st.Failures++
		}
		switch ev.Type {
		case events.EventSuiteStart:
			if m, ok := ev.Data.(map[string]any); ok {
				st.Suite, _ = m["suite"].(string)
				st.CasesTotal, _ = m["case_count"].(int)
			}
		case events.EventCaseEnd:
			st.CasesDone++
			if passed, _ := ev.Data.(bool); passed {
				st.Passed++
			} else {
				st.Failed++
			}
		case events.EventQueryError:
			st.QueryErrs++
		case events.EventSuiteEnd:
			st.Finished = true
		}
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *Server) handleEventLog(w http.ResponseWriter, r *http.Request) {
	log := s.bus.History(time.Time{})
	if log == nil {
		log = []events.Event{}
	}
	writeJSON(w, log)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, []history.Entry{})
		return
	}
	entries, err := s.runs.List(r.URL.Query().Get("suite"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	report, err := s.runs.Get(r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(data)
}
