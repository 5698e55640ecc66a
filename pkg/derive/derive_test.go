package derive

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/spec"
)

type scriptedProvider struct {
	responses []string
	calls     int
	lastMsgs  []ai.Message
}

func (p *scriptedProvider) IsAvailable() bool { return true }
func (p *scriptedProvider) Name() string      { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, messages []ai.Message) (*ai.Response, error) {
	p.lastMsgs = messages
	content := ""
	if p.calls < len(p.responses) {
		content = p.responses[p.calls]
	}
	p.calls++
	return &ai.Response{Content: content, StopReason: "stop"}, nil
}

func TestDeriveAsIsParsesResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{
		"current_state": ["Invoices are keyed manually | twice", " ", "Approvals\nby email"],
		"processes": [
			{"name": "Invoice intake", "happy_path": ["Receive", "Key in"], "unhappy_path": ["Reject"]},
			{"name": "Name only"}
		]
	}`}}
	agent := NewAgent(provider, "project", KindAsIs, nil)

	draft, err := agent.Derive(context.Background(), spec.Normalize(map[string]any{}), "Q: how?\nA: manually", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoices are keyed manually / twice", "Approvals by email"}, draft.Items)
	// AS-IS derivation drops named processes that carry no steps.
	require.Len(t, draft.Processes, 1)
	assert.Equal(t, "Invoice intake", draft.Processes[0].Name)
}

func TestDeriveToBePadsEmptyProcesses(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{
		"future_state": ["Automated intake"],
		"future_processes": [{"name": "Automated triage"}]
	}`}}
	agent := NewAgent(provider, "project", KindToBe, nil)

	draft, err := agent.Derive(context.Background(), spec.Normalize(map[string]any{}), "", nil, nil)
	require.NoError(t, err)

	require.Len(t, draft.Processes, 1)
	assert.Equal(t, []string{toBeFallbackStep}, draft.Processes[0].HappyPath)
}

func TestDeriveFallsBackOnUnparsableOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"no json here"}}
	agent := NewAgent(provider, "project", KindAsIs, nil)

	fallbackProcesses := []spec.Process{{Name: "Existing", HappyPath: []string{"step"}}}
	draft, err := agent.Derive(context.Background(), spec.Normalize(map[string]any{}), "",
		[]string{"Existing bullet", "  "}, fallbackProcesses)
	require.NoError(t, err)

	assert.Equal(t, []string{"Existing bullet"}, draft.Items)
	assert.Equal(t, fallbackProcesses, draft.Processes)
}

func TestDerivePendingPlaceholderWhenNoFallback(t *testing.T) {
	agent := NewAgent(&scriptedProvider{responses: []string{""}}, "project", KindToBe, nil)

	draft, err := agent.Derive(context.Background(), spec.Normalize(map[string]any{}), "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{toBePendingItem}, draft.Items)
	assert.Empty(t, draft.Processes)
}

func TestDerivePromptCarriesContext(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`{"current_state": ["x"]}`}}
	agent := NewAgent(provider, "change_request", KindAsIs, nil)

	_, err := agent.Derive(context.Background(),
		spec.Normalize(map[string]any{"title": "Billing"}),
		"Q: what today?\nA: spreadsheets", nil, nil)
	require.NoError(t, err)

	require.Len(t, provider.lastMsgs, 3)
	assert.Equal(t, "system", provider.lastMsgs[0].Role)
	assert.Contains(t, provider.lastMsgs[2].Content, "Engagement scope: change_request.")
	assert.Contains(t, provider.lastMsgs[2].Content, `"title": "Billing"`)
	assert.Contains(t, provider.lastMsgs[2].Content, "A: spreadsheets")
}

func TestConsoleCollaboratorConfirm(t *testing.T) {
	input := strings.Join([]string{
		"Shadow spreadsheet used for reconciliation", // extra item
		"", // stop adding items
		"Escalation handling",            // extra process
		"Log ticket; assign owner",       // happy path
		"Owner unavailable; page backup", // unhappy path
		"", // stop adding processes
		"Approved with the noted addition.",
	}, "\n") + "\n"

	var output strings.Builder
	collaborator := NewConsoleCollaboratorWithIO(strings.NewReader(input), &output)

	result, err := collaborator.Confirm(context.Background(), Proposal{
		Kind:      KindAsIs,
		Items:     []string{"Manual intake"},
		Processes: []spec.Process{{Name: "Intake", HappyPath: []string{"Receive"}}},
		Question:  "Does this capture today's reality?",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Manual intake", "Shadow spreadsheet used for reconciliation"}, result.Items)
	require.Len(t, result.Processes, 2)
	assert.Equal(t, "Escalation handling", result.Processes[1].Name)
	assert.Equal(t, []string{"Log ticket", "assign owner"}, result.Processes[1].HappyPath)
	assert.Equal(t, []string{"Owner unavailable", "page backup"}, result.Processes[1].UnhappyPath)
	assert.Equal(t, "Approved with the noted addition.", result.StakeholderComment)

	assert.Contains(t, output.String(), "Proposed AS-IS summary:")
	assert.Contains(t, output.String(), "Does this capture today's reality?")
}

func TestConsoleCollaboratorDefaultComment(t *testing.T) {
	input := "\n\n\n"
	var output strings.Builder
	collaborator := NewConsoleCollaboratorWithIO(strings.NewReader(input), &output)

	result, err := collaborator.Confirm(context.Background(), Proposal{
		Kind:     KindToBe,
		Items:    []string{"Automated intake"},
		Question: "Does this reflect the target state?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Understood and approved.", result.StakeholderComment)
	assert.Contains(t, output.String(), "(none captured yet)")
}
