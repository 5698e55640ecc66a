// Package derive generates AS-IS (current state) and TO-BE (future state)
// candidate summaries from the specification draft and collects stakeholder
// confirmation before they are locked into the final document.
package derive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/spec"
)

// Kind selects which half of the state narrative an agent derives.
type Kind string

const (
	KindAsIs Kind = "as_is"
	KindToBe Kind = "to_be"
)

// Draft holds model-derived state bullets and processes prior to stakeholder
// confirmation.
type Draft struct {
	Items     []string
	Processes []spec.Process
}

// Proposal is the package handed to a confirmation collaborator.
type Proposal struct {
	Kind            Kind
	Items           []string
	Processes       []spec.Process
	PreviewMarkdown string
	Question        string
}

// Result is the stakeholder-approved outcome of a confirmation round.
type Result struct {
	Items              []string
	Processes          []spec.Process
	StakeholderComment string
}

// Collaborator collects stakeholder sign-off on a proposed state summary.
// Implementations include the interactive console reviewer and the simulated
// stakeholder.
type Collaborator interface {
	Confirm(ctx context.Context, proposal Proposal) (*Result, error)
}

const (
	asIsSystemPrompt = "You translate conversations into precise AS-IS summaries that reflect current operations."
	toBeSystemPrompt = "You translate requirements into clear TO-BE summaries that describe the desired future experience."

	asIsDerivePrompt = "You are a senior Business Analyst documenting the AS-IS (current state) for an engagement. " +
		"Study the structured functional specification summary and conversation excerpt below. Craft 3-6 concise " +
		"bullet statements that capture the current processes, systems, pain points, and workarounds that exist " +
		"today. Focus on the present state only and avoid future or to-be language. Respond ONLY with JSON in the " +
		`shape {"current_state": [string, ...], "processes": [{"name": string, "happy_path": [string], ` +
		`"unhappy_path": [string]}, ...]}. Each bullet should stay under 220 characters and be ` +
		"stakeholder-friendly. For each process, outline 3-6 steps for the primary (happy) path and key " +
		"exception/edge cases (unhappy path)."

	toBeDerivePrompt = "You are a senior Business Analyst defining the TO-BE (future state) for an engagement. " +
		"Study the structured functional specification summary and conversation excerpt below. Craft 3-6 concise " +
		"bullet statements that capture the desired future capabilities, process improvements, and outcomes. " +
		"Ensure the bullets are actionable and written in stakeholder-friendly language. Respond ONLY with JSON " +
		`in the shape {"future_state": [string, ...], "future_processes": [{"name": string, "happy_path": ` +
		`[string], "unhappy_path": [string]}, ...]}. Each bullet should stay under 220 characters and processes ` +
		"should outline 3-6 steps for both happy and unhappy paths when applicable."

	asIsPendingItem = "Current state details pending stakeholder confirmation."
	toBePendingItem = "Future state details pending stakeholder confirmation."

	toBeFallbackStep = "Future-state steps pending definition."
)

// Agent derives state bullets and processes from the specification context
// for one Kind.
type Agent struct {
	provider ai.Provider
	scope    string
	kind     Kind
	logger   *slog.Logger
}

// NewAgent creates a derivation agent for the given kind.
func NewAgent(provider ai.Provider, scope string, kind Kind, logger *slog.Logger) *Agent {
	return &Agent{
		provider: provider,
		scope:    scope,
		kind:     kind,
		logger:   logger,
	}
}

// Derive asks the model for a fresh candidate summary seeded with the current
// draft and a conversation excerpt. Unusable model output degrades to the
// supplied fallback content; a Draft is always returned alongside a nil error
// unless the transport itself fails.
func (a *Agent) Derive(
	ctx context.Context,
	summary *spec.Summary,
	conversationExcerpt string,
	fallbackItems []string,
	fallbackProcesses []spec.Process,
) (*Draft, error) {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	excerpt := strings.TrimSpace(conversationExcerpt)
	if excerpt == "" {
		excerpt = "(No additional conversation excerpt supplied.)"
	}

	systemPrompt := asIsSystemPrompt
	derivePrompt := asIsDerivePrompt
	if a.kind == KindToBe {
		systemPrompt = toBeSystemPrompt
		derivePrompt = toBeDerivePrompt
	}

	userMessage := fmt.Sprintf(
		"Engagement scope: %s.\n\nStructured functional specification summary (JSON):\n%s\n\nConversation excerpt:\n%s",
		a.scope, payload, excerpt)

	response, err := a.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: derivePrompt},
		{Role: "user", Content: userMessage},
	})
	if err != nil {
		return nil, err
	}

	draft := a.parseResponse(response.Content)
	if draft == nil {
		if a.logger != nil {
			a.logger.Debug("derivation output unusable; using fallback content", "kind", string(a.kind))
		}
		return &Draft{
			Items:     fallbackBullets(fallbackItems, a.pendingItem()),
			Processes: cloneProcesses(fallbackProcesses),
		}, nil
	}
	if len(draft.Items) == 0 {
		draft.Items = fallbackBullets(fallbackItems, a.pendingItem())
	}
	if len(draft.Processes) == 0 {
		draft.Processes = cloneProcesses(fallbackProcesses)
	}
	return draft, nil
}

func (a *Agent) pendingItem() string {
	if a.kind == KindToBe {
		return toBePendingItem
	}
	return asIsPendingItem
}

func (a *Agent) parseResponse(raw string) *Draft {
	data := spec.ExtractJSONObject(raw)
	if data == nil {
		return nil
	}

	itemsKey, processesKey := "current_state", "processes"
	if a.kind == KindToBe {
		itemsKey, processesKey = "future_state", "future_processes"
	}

	var items []string
	if entries, ok := data[itemsKey].([]any); ok {
		for _, entry := range entries {
			text := strings.TrimSpace(fmt.Sprint(entry))
			if text == "" {
				continue
			}
			text = strings.ReplaceAll(text, "|", "/")
			text = strings.ReplaceAll(text, "\n", " ")
			items = append(items, text)
		}
	}

	fallbackStep := ""
	if a.kind == KindToBe {
		fallbackStep = toBeFallbackStep
	}
	processes := spec.CoerceProcesses(data[processesKey], fallbackStep)

	return &Draft{Items: items, Processes: processes}
}

func fallbackBullets(items []string, pending string) []string {
	var bullets []string
	for _, entry := range items {
		if text := strings.TrimSpace(entry); text != "" {
			bullets = append(bullets, text)
		}
	}
	if len(bullets) == 0 {
		bullets = []string{pending}
	}
	return bullets
}

func cloneProcesses(processes []spec.Process) []spec.Process {
	cloned := make([]spec.Process, 0, len(processes))
	for _, process := range processes {
		cloned = append(cloned, spec.Process{
			Name:        process.Name,
			HappyPath:   append([]string(nil), process.HappyPath...),
			UnhappyPath: append([]string(nil), process.UnhappyPath...),
		})
	}
	return cloned
}
