package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ThreadMap persists the thread-id to archive-record-id mapping so completed
// conversations stay addressable after their live session is evicted.
type ThreadMap struct {
	Path      string            `json:"-"`
	Records   map[string]string `json:"records"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewThreadMap creates a mapping backed by the given file.
func NewThreadMap(path string) *ThreadMap {
	return &ThreadMap{
		Path:    path,
		Records: make(map[string]string),
	}
}

// Load reads the mapping from disk. A missing file is not an error.
func (m *ThreadMap) Load() error {
	data, err := os.ReadFile(m.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, m); err != nil {
		return err
	}
	if m.Records == nil {
		m.Records = make(map[string]string)
	}
	return nil
}

// Save writes the mapping to disk.
func (m *ThreadMap) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.Path), 0o755); err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.Path, data, 0o644)
}

// Set associates a thread with an archive record.
func (m *ThreadMap) Set(threadID, recordID string) {
	m.Records[threadID] = recordID
}

// Get returns the record id for a thread, or "".
func (m *ThreadMap) Get(threadID string) string {
	return m.Records[threadID]
}
