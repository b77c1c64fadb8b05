// Package state owns the durable cooldown store: a flat JSON object
// mapping offer signatures to last-alerted unix timestamps. It is the
// only component allowed to mutate durable state, and the file is kept
// human-inspectable for operational debugging.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CorruptError reports an unreadable or malformed cooldown store. The
// orchestrator aborts the cycle on it; corrupt state is never silently
// treated as empty, which would misread state loss as a first run and
// trigger an alert storm.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cooldown store %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Store holds recently-alerted signatures with timestamps. One poll
// cycle acquires it exclusively via Acquire; the remaining methods
// assume the caller holds that acquisition.
type Store struct {
	path    string
	logger  zerolog.Logger
	mu      sync.Mutex
	entries map[string]int64 // signature -> unix seconds
}

// Open loads the store from path. A missing or empty file is an empty
// store (first run); malformed JSON fails with *CorruptError.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		logger:  logger.With().Str("component", "cooldown_store").Logger(),
		entries: map[string]int64{},
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, &CorruptError{Path: path, Err: err}
	}
	if len(payload) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(payload, &s.entries); err != nil {
		return nil, &CorruptError{Path: path, Err: err}
	}
	if s.entries == nil {
		s.entries = map[string]int64{}
	}
	return s, nil
}

// Acquire takes the store exclusively for one poll cycle and returns
// the release function. Release must run on every exit path.
func (s *Store) Acquire() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

// InCooldown reports whether sig alerted within the window before now.
func (s *Store) InCooldown(sig string, now time.Time, window time.Duration) bool {
	ts, ok := s.entries[sig]
	if !ok {
		return false
	}
	return now.Sub(time.Unix(ts, 0)) < window
}

// RecordAlert stamps sig with now and flushes the whole store to disk
// before returning. A failed flush surfaces as an error; the in-memory
// entry stands so the cycle's own gating stays consistent.
func (s *Store) RecordAlert(sig string, now time.Time) error {
	s.entries[sig] = now.Unix()
	return s.persist()
}

// Prune removes entries older than window+retention and persists when
// anything was dropped. Returns the number of entries removed.
func (s *Store) Prune(now time.Time, window, retention time.Duration) (int, error) {
	cutoff := now.Add(-(window + retention)).Unix()
	removed := 0
	for sig, ts := range s.entries {
		if ts < cutoff {
			delete(s.entries, sig)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persist()
}

// Len returns the number of tracked signatures.
func (s *Store) Len() int { return len(s.entries) }

// Entries returns a copy of the store contents for inspection.
func (s *Store) Entries() map[string]time.Time {
	out := make(map[string]time.Time, len(s.entries))
	for sig, ts := range s.entries {
		out[sig] = time.Unix(ts, 0)
	}
	return out
}

// persist writes the whole store atomically (tmp + rename) so a crash
// mid-write never leaves a torn file behind.
func (s *Store) persist() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	payload, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cooldown store: %w", err)
	}
	payload = append(payload, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o600); err != nil {
		return fmt.Errorf("write cooldown store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cooldown store: %w", err)
	}
	return nil
}
