package simulate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/archive"
	"thoreinstein.com/specforge/pkg/derive"
	"thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/export"
	"thoreinstein.com/specforge/pkg/interview"
	"thoreinstein.com/specforge/pkg/review"
)

// scriptedProvider replays canned responses, repeating the last one, and
// records every request.
type scriptedProvider struct {
	responses []string
	err       error
	requests  [][]ai.Message
}

func (p *scriptedProvider) IsAvailable() bool { return true }
func (p *scriptedProvider) Name() string      { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, messages []ai.Message) (*ai.Response, error) {
	p.requests = append(p.requests, messages)
	if p.err != nil {
		return nil, p.err
	}
	index := len(p.requests) - 1
	if index >= len(p.responses) {
		index = len(p.responses) - 1
	}
	return &ai.Response{Content: p.responses[index], StopReason: "stop"}, nil
}

func TestPersonaFromMapMergesDefaults(t *testing.T) {
	persona := PersonaFromMap(map[string]any{
		"project_name": "Claims Modernization",
		"goals":        []any{"Cut cycle time", "Improve auditability"},
		"risks":        "Vendor lock-in; Data migration slippage",
		"tone":         "  ",
	})

	assert.Equal(t, "Claims Modernization", persona.ProjectName)
	assert.Equal(t, DefaultPersona().Company, persona.Company)
	assert.Equal(t, []string{"Cut cycle time", "Improve auditability"}, persona.Goals)
	assert.Equal(t, []string{"Vendor lock-in", "Data migration slippage"}, persona.Risks)
	assert.Equal(t, DefaultPersona().Preferences, persona.Preferences)
	assert.Equal(t, DefaultPersona().Tone, persona.Tone, "blank tone falls back")
}

func TestPersonaSummaryLines(t *testing.T) {
	lines := DefaultPersona().SummaryLines()
	require.Len(t, lines, 8)
	assert.Equal(t, "Project: Unified Collaboration Platform", lines[0])
	assert.True(t, strings.HasPrefix(lines[4], "Goals: "))
	assert.Contains(t, lines[4], "; ")
}

func TestGeneratePersonaParsesResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`Here is your persona: {"project_name": "Fleet Telemetry", "company": "Northwind"}`,
	}}
	seed := 7
	persona := GeneratePersona(context.Background(), provider, "change_request", &seed, nil)

	assert.Equal(t, "Fleet Telemetry", persona.ProjectName)
	assert.Equal(t, "Northwind", persona.Company)

	require.Len(t, provider.requests, 1)
	prompt := provider.requests[0][1].Content
	assert.Contains(t, prompt, "change request initiative")
	assert.Contains(t, prompt, "creative seed 7")
}

func TestGeneratePersonaFallsBackOnGarbage(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json at all"}}
	persona := GeneratePersona(context.Background(), provider, "project", nil, nil)
	assert.Equal(t, DefaultPersona(), persona)

	failing := &scriptedProvider{err: errors.NewAIError("scripted", "Chat", "down")}
	persona = GeneratePersona(context.Background(), failing, "project", nil, nil)
	assert.Equal(t, DefaultPersona(), persona)
}

func TestLoadPersonaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project_name": "Billing Revamp"}`), 0o644))

	data, err := LoadPersonaFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Billing Revamp", data["project_name"])

	_, err = LoadPersonaFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2]`), 0o644))
	_, err = LoadPersonaFile(bad)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestResponderAnswerKeepsRecentHistory(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"We rely on spreadsheets today."}}
	responder := NewStakeholderResponder(DefaultPersona(), provider, nil)

	for i := 0; i < 6; i++ {
		_, err := responder.Answer(context.Background(), "Question?")
		require.NoError(t, err)
	}

	last := provider.requests[len(provider.requests)-1]
	// System prompt + 4 remembered exchanges (2 messages each) + question.
	assert.Len(t, last, 1+historyWindow*2+1)
	assert.Equal(t, "system", last[0].Role)
	assert.Contains(t, last[0].Content, "Director of Employee Experience")
	assert.Contains(t, last[len(last)-1].Content, "Interviewer question: Question?")
}

func TestResponderClosingFeedbackTruncatesSpec(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"Looks complete to me."}}
	responder := NewStakeholderResponder(DefaultPersona(), provider, nil)

	longSpec := strings.Repeat("x", specExcerptLimit+500)
	reply, err := responder.ClosingFeedback(context.Background(), longSpec)
	require.NoError(t, err)
	assert.Equal(t, "Looks complete to me.", reply)

	prompt := provider.requests[0][1].Content
	assert.Contains(t, prompt, strings.Repeat("x", specExcerptLimit)+"\n...")
	assert.NotContains(t, prompt, strings.Repeat("x", specExcerptLimit+1))
}

func TestResponderConfirmApprovesProposal(t *testing.T) {
	responder := NewStakeholderResponder(DefaultPersona(), &scriptedProvider{responses: []string{""}}, nil)

	result, err := responder.Confirm(context.Background(), derive.Proposal{
		Kind:  derive.KindAsIs,
		Items: []string{"Manual intake today"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Manual intake today"}, result.Items)
	assert.NotEmpty(t, result.StakeholderComment)
}

// routingProvider answers each request based on what kind of prompt it is,
// so a full simulation can run no matter how many subjects the planner walks
// through.
type routingProvider struct {
	personaJSON string
	summaryJSON string
	requests    [][]ai.Message
}

func (p *routingProvider) IsAvailable() bool { return true }
func (p *routingProvider) Name() string      { return "routing" }

func (p *routingProvider) Chat(_ context.Context, messages []ai.Message) (*ai.Response, error) {
	p.requests = append(p.requests, messages)
	last := messages[len(messages)-1].Content
	reply := ""
	switch {
	case strings.Contains(messages[0].Content, "stakeholder personas"):
		reply = p.personaJSON
	case strings.Contains(last, "Decide whether another question is required"):
		reply = `{"question": "", "subject_complete": true}`
		if strings.Contains(last, "Start a discovery interview") {
			reply = `{"question": "What should this initiative accomplish?", "subject_complete": false}`
		}
	case strings.Contains(last, "Interviewer question:"):
		reply = "We want live telemetry across the fleet, with alerts routed to dispatch."
	case strings.Contains(last, "Draft specification:"):
		reply = "no"
	case strings.Contains(last, "Engagement scope:"):
		reply = "{}"
	default:
		reply = p.summaryJSON
	}
	return &ai.Response{Content: reply, StopReason: "stop"}, nil
}

// acceptingReviewer approves every draft without consulting the model.
type acceptingReviewer struct{}

func (acceptingReviewer) Review(_ context.Context, _ string) (*review.SpecificationReview, error) {
	return &review.SpecificationReview{
		AllSubjectsPresent:     true,
		TableValid:             true,
		FeedbackForInterviewer: "Accepted.",
	}, nil
}

func newTestRunner(t *testing.T, provider ai.Provider, out *bytes.Buffer) *Runner {
	t.Helper()
	dir := t.TempDir()
	exporter, err := export.NewExporter(dir, false, nil)
	require.NoError(t, err)
	arch := archive.New(filepath.Join(dir, "transcripts.jsonl"), nil, nil, nil)
	runner := NewRunner(provider, exporter, arch, nil, 1, 2, out, nil)
	runner.newReviewer = func(string) interview.Reviewer { return acceptingReviewer{} }
	return runner
}

func TestRunnerRejectsInvalidCount(t *testing.T) {
	runner := newTestRunner(t, &scriptedProvider{responses: []string{"{}"}}, &bytes.Buffer{})
	_, err := runner.Run(context.Background(), Options{Count: 0, Scope: "project"})
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestRunnerSimulatesFullInterview(t *testing.T) {
	provider := &routingProvider{
		personaJSON: `{"project_name": "Fleet Telemetry", "company": "Northwind"}`,
		summaryJSON: `{"title": "Fleet Telemetry"}`,
	}

	var out bytes.Buffer
	runner := newTestRunner(t, provider, &out)

	results, err := runner.Run(context.Background(), Options{Count: 1, Scope: "project"})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, "Fleet Telemetry", result.PersonaProject)
	assert.Equal(t, interview.LoopAccepted, result.State)
	assert.NotEmpty(t, result.SpecPath)
	assert.NotEmpty(t, result.RecordID)

	content, err := os.ReadFile(result.SpecPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Fleet Telemetry")

	assert.Contains(t, out.String(), "Simulated stakeholder persona:")
	assert.Contains(t, out.String(), "Project: Fleet Telemetry")
}

func TestRunnerQuietModePrintsSummaryLine(t *testing.T) {
	provider := &routingProvider{
		personaJSON: `{"project_name": "Fleet Telemetry"}`,
		summaryJSON: `{"title": "Fleet Telemetry"}`,
	}

	var out bytes.Buffer
	runner := newTestRunner(t, provider, &out)

	results, err := runner.Run(context.Background(), Options{Count: 1, Scope: "project", Quiet: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Contains(t, out.String(), "Simulation 1/1 -> Fleet Telemetry => ")
	assert.NotContains(t, out.String(), "Simulated stakeholder persona:")
}

func TestRunnerSeedIncrementsPerRun(t *testing.T) {
	provider := &routingProvider{
		personaJSON: `{"project_name": "Fleet Telemetry"}`,
		summaryJSON: `{"title": "Fleet Telemetry"}`,
	}
	// Persona generation happens once per run; capture the seeds used.
	var seedPrompts []string

	runner := newTestRunner(t, provider, &bytes.Buffer{})
	base := 10
	_, err := runner.Run(context.Background(), Options{Count: 2, Scope: "project", Seed: &base, Quiet: true})
	require.NoError(t, err)

	for _, request := range provider.requests {
		for _, message := range request {
			if strings.Contains(message.Content, "creative seed") {
				seedPrompts = append(seedPrompts, message.Content)
			}
		}
	}
	require.Len(t, seedPrompts, 2)
	assert.Contains(t, seedPrompts[0], "creative seed 10")
	assert.Contains(t, seedPrompts[1], "creative seed 11")
}
