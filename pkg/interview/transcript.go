package interview

import (
	"fmt"
	"strings"
	"time"

	"thoreinstein.com/specforge/pkg/ai"
)

// Turn is a single question/answer pair tagged with its interview subject.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Subject  string `json:"subject"`
}

// Transcript is the append-only record of the interview conversation. It is
// the single source of truth replayed into every LLM call.
type Transcript struct {
	Scope             string
	Turns             []Turn
	InitialUserPrompt string
	StartedAt         time.Time
}

// NewTranscript creates an empty transcript for a scope.
func NewTranscript(scope string) *Transcript {
	return &Transcript{
		Scope:     scope,
		StartedAt: time.Now().UTC(),
	}
}

// Append records a completed question/answer pair.
func (t *Transcript) Append(question, answer, subject string) {
	t.Turns = append(t.Turns, Turn{Question: question, Answer: answer, Subject: subject})
}

// TurnCount returns the number of recorded turns.
func (t *Transcript) TurnCount() int {
	return len(t.Turns)
}

// AsMessages flattens the transcript into alternating assistant/user chat
// messages, prefixed with the kickoff prompt when set. Questions carry their
// subject tag so the model sees which topic each exchange served.
func (t *Transcript) AsMessages() []ai.Message {
	var messages []ai.Message
	if t.InitialUserPrompt != "" {
		messages = append(messages, ai.Message{Role: "user", Content: t.InitialUserPrompt})
	}
	for _, turn := range t.Turns {
		question := turn.Question
		if turn.Subject != "" {
			question = fmt.Sprintf("[Subject: %s] %s", turn.Subject, question)
		}
		messages = append(messages, ai.Message{Role: "assistant", Content: question})
		messages = append(messages, ai.Message{Role: "user", Content: turn.Answer})
	}
	return messages
}

// Excerpt returns a compact Q/A rendering of the most recent turns, capped at
// maxChars with a truncation marker. Used to seed state-derivation prompts.
func (t *Transcript) Excerpt(maxTurns, maxChars int) string {
	if len(t.Turns) == 0 {
		return ""
	}
	selected := t.Turns
	if maxTurns > 0 && len(selected) > maxTurns {
		selected = selected[len(selected)-maxTurns:]
	}
	var lines []string
	for _, turn := range selected {
		if question := strings.TrimSpace(turn.Question); question != "" {
			lines = append(lines, "Q: "+question)
		}
		if answer := strings.TrimSpace(turn.Answer); answer != "" {
			lines = append(lines, "A: "+answer)
		}
	}
	excerpt := strings.TrimSpace(strings.Join(lines, "\n"))
	if maxChars <= 0 || len(excerpt) <= maxChars {
		return excerpt
	}
	truncated := strings.TrimRight(excerpt[:maxChars-5], " \t\n")
	return truncated + "\n[...]"
}
