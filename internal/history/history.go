// Package history keeps an append-only JSONL journal of per-cycle
// summaries. It feeds the export command; failures here are logged and
// never abort a cycle.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// CycleRecord is one journal line summarising a completed poll cycle.
type CycleRecord struct {
	Time          time.Time `json:"time"`
	CycleID       string    `json:"cycle_id"`
	Outcome       string    `json:"outcome"`
	Pages         int       `json:"pages"`
	Fetched       int       `json:"fetched"`
	Candidates    int       `json:"candidates"`
	Alerted       int       `json:"alerted"`
	LowestMileage *int      `json:"lowest_mileage,omitempty"`
	Errors        []string  `json:"errors,omitempty"`
}

// Journal appends and reads cycle records.
type Journal struct {
	path   string
	logger zerolog.Logger
}

// NewJournal constructs a journal at path.
func NewJournal(path string, logger zerolog.Logger) *Journal {
	return &Journal{
		path:   path,
		logger: logger.With().Str("component", "cycle_history").Logger(),
	}
}

// Append writes one record as a JSON line.
func (j *Journal) Append(rec CycleRecord) error {
	if dir := filepath.Dir(j.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open history journal: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// ReadBetween returns records with from <= Time < to, in file order.
func (j *Journal) ReadBetween(from, to time.Time) ([]CycleRecord, error) {
	all, err := j.readAll()
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, rec := range all {
		if rec.Time.Before(from) || !rec.Time.Before(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadRecent returns the last n records in chronological order.
func (j *Journal) ReadRecent(n int) ([]CycleRecord, error) {
	all, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// readAll scans the journal, skipping unparseable lines with a warning
// rather than failing the whole read.
func (j *Journal) readAll() ([]CycleRecord, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history journal: %w", err)
	}
	defer f.Close()

	var out []CycleRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec CycleRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			j.logger.Warn().Err(err).Msg("skipping malformed history line")
			continue
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
