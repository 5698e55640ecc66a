// Package archive persists interview transcripts to a JSONL log, indexes
// them in SQLite for browsing, and optionally mirrors them into Redis.
package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Turn is one archived question/answer exchange.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Subject  string `json:"subject,omitempty"`
}

// Record is one archived interview session.
type Record struct {
	ID            string    `json:"id"`
	Scope         string    `json:"scope"`
	CreatedAt     time.Time `json:"created_at"`
	Turns         []Turn    `json:"turns"`
	SpecText      string    `json:"spec_text,omitempty"`
	SpecPath      string    `json:"spec_path,omitempty"`
	InitialPrompt string    `json:"initial_prompt,omitempty"`
}

// TurnCount returns the number of question/answer exchanges.
func (r *Record) TurnCount() int { return len(r.Turns) }

// SearchableBlob flattens the record into lowercase text for keyword search.
func (r *Record) SearchableBlob() string {
	var chunks []string
	if r.InitialPrompt != "" {
		chunks = append(chunks, r.InitialPrompt)
	}
	for _, turn := range r.Turns {
		if turn.Question != "" {
			chunks = append(chunks, turn.Question)
		}
		if turn.Answer != "" {
			chunks = append(chunks, turn.Answer)
		}
	}
	if r.SpecText != "" {
		chunks = append(chunks, r.SpecText)
	}
	return strings.ToLower(strings.Join(chunks, "\n"))
}

// Snippet returns a short context window around the first match of needle,
// or "" when the record does not contain it.
func (r *Record) Snippet(needle string) string {
	haystack := r.SearchableBlob()
	needle = strings.ToLower(needle)
	index := strings.Index(haystack, needle)
	if index == -1 {
		return ""
	}
	const window = 80
	start := index - window
	if start < 0 {
		start = 0
	}
	end := index + len(needle) + window
	if end > len(haystack) {
		end = len(haystack)
	}
	return strings.ReplaceAll(haystack[start:end], "\n", " ")
}

// NewRecordID mints a session identifier like sess-20260314092653-a1b2c3.
func NewRecordID(createdAt time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("sess-%s-%s", createdAt.UTC().Format("20060102150405"), suffix)
}
