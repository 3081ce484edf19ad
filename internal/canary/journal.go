package canary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JournalEntry is one probe attempt in the append-only outcome journal.
type JournalEntry struct {
	Timestamp time.Time `json:"ts"`
	Node      string    `json:"node"`
	ProbeID   string    `json:"probeId,omitempty"`
	Outcome   string    `json:"outcome"`
	LatencyMs int64     `json:"latencyMs"`
	Retries   int       `json:"retries"`
}

// Journal writes probe outcomes as JSON lines, one file per deployment.
type Journal struct {
	mu   sync.Mutex
	file *os.File
}

// OpenJournal creates dir if needed and opens probes.jsonl for append.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	path := filepath.Join(dir, "probes.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &Journal{file: file}, nil
}

// Append writes one entry. Journal failures are swallowed: losing a journal
// line must never fail a probe.
func (j *Journal) Append(entry JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = j.file.Write(append(line, '\n'))
}

// Close flushes and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}
