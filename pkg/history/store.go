// Package history keeps past suite runs in a bbolt file and compares them.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/cgast/dialogcheck/pkg/runner"
)

// Buckets used by the store.
const (
	bucketRuns  = "runs"  // run id -> JSON report
	bucketIndex = "index" // suite \x00 start time \x00 run id -> run id
)

// DefaultMaxEntries bounds how many runs are kept per suite.
const DefaultMaxEntries = 500

// ErrNotFound is returned when a run id or suite has no stored run.
var ErrNotFound = errors.New("run not found")

// Store persists run reports.
type Store interface {
	Save(report runner.Report) (string, error)
	Get(id string) (runner.Report, error)
	List(suite string) ([]Entry, error)
	Latest(suite string) (runner.Report, error)
	Close() error
}

// Entry is the summary of a stored run as shown in listings.
type Entry struct {
	ID        string        `json:"id"`
	Suite     string        `json:"suite"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
}

func entryOf(r runner.Report) Entry {
	passed, failed := r.Counts()
	return Entry{
		ID:        r.ID,
		Suite:     r.Suite,
		StartedAt: r.StartedAt,
		Duration:  r.Duration(),
		Passed:    passed,
		Failed:    failed,
	}
}

// BoltStore is a bbolt-backed implementation of Store.
type BoltStore struct {
	db         *bolt.DB
	mu         sync.RWMutex
	maxEntries int
}

var (
	_ Store           = (*BoltStore)(nil)
	_ runner.Recorder = (*BoltStore)(nil)
)

// Option configures a BoltStore.
type Option func(*BoltStore)

// WithMaxEntries keeps at most n runs per suite, dropping the oldest.
// n <= 0 keeps everything.
func WithMaxEntries(n int) Option {
	return func(s *BoltStore) { s.maxEntries = n }
}

// NewBoltStore opens (or creates) a run store at path.
func NewBoltStore(path string, opts ...Option) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketRuns, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	s := &BoltStore{db: db, maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// indexKey sorts runs of one suite by start time.
func indexKey(suite string, started time.Time, id string) []byte {
	return []byte(suite + "\x00" + started.UTC().Format("20060102T150405.000000000") + "\x00" + id)
}

func suitePrefix(suite string) []byte {
	return []byte(suite + "\x00")
}

// Save stores report and returns its id, assigning one when report.ID is empty.
func (s *BoltStore) Save(report runner.Report) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	data, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket([]byte(bucketRuns))
		index := tx.Bucket([]byte(bucketIndex))
		if err := runs.Put([]byte(report.ID), data); err != nil {
			return err
		}
		if err := index.Put(indexKey(report.Suite, report.StartedAt, report.ID), []byte(report.ID)); err != nil {
			return err
		}
		return s.prune(tx, report.Suite)
	})
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", report.ID, err)
	}
	return report.ID, nil
}

// prune drops the oldest runs of suite beyond maxEntries.
func (s *BoltStore) prune(tx *bolt.Tx, suite string) error {
	if s.maxEntries <= 0 {
		return nil
	}
	index := tx.Bucket([]byte(bucketIndex))
	runs := tx.Bucket([]byte(bucketRuns))

	var keys [][]byte
	prefix := suitePrefix(suite)
	c := index.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}

	for len(keys) > s.maxEntries {
		id := index.Get(keys[0])
		if err := runs.Delete(id); err != nil {
			return err
		}
		if err := index.Delete(keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

// Get loads a run by id.
func (s *BoltStore) Get(id string) (runner.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var report runner.Report
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketRuns)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &report)
	})
	if err != nil {
		return runner.Report{}, err
	}
	return report, nil
}

// List returns stored runs of suite oldest first. An empty suite lists every
// suite, grouped by suite name.
func (s *BoltStore) List(suite string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket([]byte(bucketRuns))
		var prefix []byte
		if suite != "" {
			prefix = suitePrefix(suite)
		}
		c := tx.Bucket([]byte(bucketIndex)).Cursor()
		k, id := c.First()
		if prefix != nil {
			k, id = c.Seek(prefix)
		}
		for ; k != nil && bytes.HasPrefix(k, prefix); k, id = c.Next() {
			var r runner.Report
			if err := json.Unmarshal(runs.Get(id), &r); err != nil {
				return fmt.Errorf("unmarshal run %s: %w", string(id), err)
			}
			entries = append(entries, entryOf(r))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Latest returns the most recent run of suite.
func (s *BoltStore) Latest(suite string) (runner.Report, error) {
	entries, err := s.List(suite)
	if err != nil {
		return runner.Report{}, err
	}
	if len(entries) == 0 {
		return runner.Report{}, fmt.Errorf("%w: no runs for suite %q", ErrNotFound, suite)
	}
	return s.Get(entries[len(entries)-1].ID)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
