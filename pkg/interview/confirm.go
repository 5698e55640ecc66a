package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"thoreinstein.com/specforge/pkg/derive"
	"thoreinstein.com/specforge/pkg/spec"
)

// Deriver produces a candidate state summary from the draft and conversation
// context. Satisfied by derive.Agent; tests substitute scripted fakes.
type Deriver interface {
	Derive(ctx context.Context, summary *spec.Summary, conversationExcerpt string,
		fallbackItems []string, fallbackProcesses []spec.Process) (*derive.Draft, error)
}

// ConfirmationMemoizer applies stakeholder confirmation to one half of the
// state narrative (AS-IS or TO-BE), caching the approved content so repeated
// finalizations with an unchanged transcript never re-prompt the stakeholder.
type ConfirmationMemoizer struct {
	kind         derive.Kind
	deriver      Deriver
	collaborator derive.Collaborator
	logger       *slog.Logger

	approvedItems     []string
	approvedProcesses []spec.Process
	approved          bool
	confirmedTurns    int
	signature         string
}

// NewConfirmationMemoizer creates a memoizer for the given kind.
func NewConfirmationMemoizer(kind derive.Kind, deriver Deriver, collaborator derive.Collaborator, logger *slog.Logger) *ConfirmationMemoizer {
	return &ConfirmationMemoizer{
		kind:         kind,
		deriver:      deriver,
		collaborator: collaborator,
		logger:       logger,
	}
}

// Apply confirms the summary's state content in place. The order of checks:
//  1. Unchanged transcript since the last approval: reuse it, zero calls.
//  2. Derive a fresh candidate; if its signature matches the approval's,
//     reuse without re-confirming.
//  3. If the candidate content equals the approval (turn count aside), reuse
//     it and refresh the stored signature.
//  4. Otherwise run a confirmation round and store the new approval.
//
// Derivation or confirmation failure degrades to the draft's existing
// content; confirmation never aborts the interview.
func (m *ConfirmationMemoizer) Apply(ctx context.Context, summary *spec.Summary, transcript *Transcript) {
	fallbackItems := append([]string(nil), m.items(summary)...)
	fallbackProcesses := m.fallbackProcesses(summary)
	turnCount := transcript.TurnCount()

	if m.approved && turnCount == m.confirmedTurns {
		m.setApproved(summary)
		return
	}

	draft, err := m.deriver.Derive(ctx, summary,
		transcript.Excerpt(excerptMaxTurns, excerptMaxChars),
		fallbackItems, fallbackProcesses)
	if err != nil {
		m.logFailure(err)
		m.set(summary, fallbackItems, fallbackProcesses)
		return
	}

	currentSignature := confirmationSignature(turnCount, draft.Items, draft.Processes)
	if m.approved && m.signature == currentSignature {
		m.setApproved(summary)
		return
	}
	if m.approved &&
		contentSignature(draft.Items, draft.Processes) == contentSignature(m.approvedItems, m.approvedProcesses) {
		m.setApproved(summary)
		m.signature = currentSignature
		m.confirmedTurns = turnCount
		return
	}

	preview := *summary
	m.set(&preview, draft.Items, draft.Processes)

	result, err := m.collaborator.Confirm(ctx, derive.Proposal{
		Kind:            m.kind,
		Items:           draft.Items,
		Processes:       draft.Processes,
		PreviewMarkdown: preview.Render(),
		Question:        m.reviewQuestion(),
	})
	if err != nil {
		m.logFailure(err)
		m.set(summary, fallbackItems, fallbackProcesses)
		return
	}

	items := result.Items
	if m.kind == derive.KindToBe {
		items = make([]string, 0, len(result.Items))
		for _, item := range result.Items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	processes := append([]spec.Process(nil), result.Processes...)

	m.set(summary, items, processes)
	m.approvedItems = append([]string(nil), items...)
	m.approvedProcesses = processes
	m.approved = true
	m.confirmedTurns = turnCount
	m.signature = confirmationSignature(turnCount, items, processes)

	if result.StakeholderComment != "" && m.logger != nil {
		m.logger.Info("stakeholder confirmation recorded",
			"kind", string(m.kind),
			"comment", result.StakeholderComment)
	}
}

func (m *ConfirmationMemoizer) reviewQuestion() string {
	if m.kind == derive.KindToBe {
		return ToBeReviewPrompt
	}
	return AsIsReviewPrompt
}

func (m *ConfirmationMemoizer) items(summary *spec.Summary) []string {
	if m.kind == derive.KindToBe {
		return summary.FutureState
	}
	return summary.CurrentState
}

// fallbackProcesses extracts the draft's processes under the kind's rules:
// AS-IS drops entries without steps, TO-BE pads them with a placeholder step.
func (m *ConfirmationMemoizer) fallbackProcesses(summary *spec.Summary) []spec.Process {
	if m.kind == derive.KindToBe {
		return spec.PadFutureProcesses(summary.FutureProcesses)
	}
	return renderableProcessesFor(summary.CurrentProcesses)
}

func (m *ConfirmationMemoizer) set(summary *spec.Summary, items []string, processes []spec.Process) {
	if m.kind == derive.KindToBe {
		summary.FutureState = items
		summary.FutureProcesses = processes
		return
	}
	summary.CurrentState = items
	summary.CurrentProcesses = processes
}

func (m *ConfirmationMemoizer) setApproved(summary *spec.Summary) {
	m.set(summary,
		append([]string(nil), m.approvedItems...),
		append([]spec.Process(nil), m.approvedProcesses...))
}

func (m *ConfirmationMemoizer) logFailure(err error) {
	if m.logger != nil {
		m.logger.Warn("state confirmation degraded to fallback content",
			"kind", string(m.kind), "error", err)
	}
}

// contentSignature encodes items and processes order-sensitively with
// whitespace-insensitive entries. Reordering is a real change; padding is not.
func contentSignature(items []string, processes []spec.Process) string {
	type processKey struct {
		Name    string   `json:"name"`
		Happy   []string `json:"happy"`
		Unhappy []string `json:"unhappy"`
	}
	trimmedItems := make([]string, 0, len(items))
	for _, item := range items {
		trimmedItems = append(trimmedItems, strings.TrimSpace(item))
	}
	keys := make([]processKey, 0, len(processes))
	for _, process := range processes {
		keys = append(keys, processKey{
			Name:    strings.TrimSpace(process.Name),
			Happy:   trimSteps(process.HappyPath),
			Unhappy: trimSteps(process.UnhappyPath),
		})
	}
	payload, err := json.Marshal(struct {
		Items     []string     `json:"items"`
		Processes []processKey `json:"processes"`
	}{Items: trimmedItems, Processes: keys})
	if err != nil {
		return fmt.Sprintf("%v|%v", trimmedItems, keys)
	}
	return string(payload)
}

func confirmationSignature(turnCount int, items []string, processes []spec.Process) string {
	return fmt.Sprintf("%d|%s", turnCount, contentSignature(items, processes))
}

func trimSteps(steps []string) []string {
	trimmed := make([]string, 0, len(steps))
	for _, step := range steps {
		trimmed = append(trimmed, strings.TrimSpace(step))
	}
	return trimmed
}
