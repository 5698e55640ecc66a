package interview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/specforge/pkg/derive"
	forgeerrors "thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/spec"
)

// fakeDeriver returns a fixed draft and counts invocations.
type fakeDeriver struct {
	draft *derive.Draft
	err   error
	calls int
}

func (d *fakeDeriver) Derive(_ context.Context, _ *spec.Summary, _ string, fallbackItems []string, fallbackProcesses []spec.Process) (*derive.Draft, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if d.draft != nil {
		return d.draft, nil
	}
	return &derive.Draft{Items: fallbackItems, Processes: fallbackProcesses}, nil
}

// fakeCollaborator approves whatever it is shown, optionally with edits.
type fakeCollaborator struct {
	result *derive.Result
	calls  int
}

func (c *fakeCollaborator) Confirm(_ context.Context, proposal derive.Proposal) (*derive.Result, error) {
	c.calls++
	if c.result != nil {
		return c.result, nil
	}
	return &derive.Result{
		Items:              proposal.Items,
		Processes:          proposal.Processes,
		StakeholderComment: "Understood and approved.",
	}, nil
}

func transcriptWithTurns(n int) *Transcript {
	transcript := NewTranscript("project")
	for i := 0; i < n; i++ {
		transcript.Append("question", "answer", "")
	}
	return transcript
}

func TestConfirmationFirstApplyRunsSlowPath(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{
		Items:     []string{"Manual intake today"},
		Processes: []spec.Process{{Name: "Intake", HappyPath: []string{"Receive"}}},
	}}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	summary := spec.Normalize(map[string]any{})
	memoizer.Apply(context.Background(), summary, transcriptWithTurns(5))

	assert.Equal(t, 1, deriver.calls)
	assert.Equal(t, 1, collaborator.calls)
	assert.Equal(t, []string{"Manual intake today"}, summary.CurrentState)
	require.Len(t, summary.CurrentProcesses, 1)
}

func TestConfirmationMemoizesUnchangedTranscript(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{Items: []string{"Manual intake today"}}}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	transcript := transcriptWithTurns(5)
	first := spec.Normalize(map[string]any{})
	memoizer.Apply(context.Background(), first, transcript)

	// Second finalization with the same five turns: a pure cache hit with
	// zero additional derivation or collaborator calls.
	second := spec.Normalize(map[string]any{})
	memoizer.Apply(context.Background(), second, transcript)

	assert.Equal(t, 1, deriver.calls)
	assert.Equal(t, 1, collaborator.calls)
	assert.Equal(t, []string{"Manual intake today"}, second.CurrentState)
}

func TestConfirmationSignatureFastPathSkipsReconfirmation(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{Items: []string{"Manual intake today"}}}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	memoizer.Apply(context.Background(), spec.Normalize(map[string]any{}), transcriptWithTurns(5))
	require.Equal(t, 1, collaborator.calls)

	// Forge the stored signature to the upcoming turn count. The turn-count
	// fast path misses (confirmedTurns is still 5), but the derived
	// candidate's full signature matches, so no confirmation round runs.
	memoizer.signature = confirmationSignature(6, memoizer.approvedItems, memoizer.approvedProcesses)
	summary := spec.Normalize(map[string]any{})
	memoizer.Apply(context.Background(), summary, transcriptWithTurns(6))

	assert.Equal(t, 2, deriver.calls)
	assert.Equal(t, 1, collaborator.calls)
	assert.Equal(t, []string{"Manual intake today"}, summary.CurrentState)
}

func TestConfirmationEquivalenceFallbackRefreshesSignature(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{Items: []string{"Manual intake today"}}}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	memoizer.Apply(context.Background(), spec.Normalize(map[string]any{}), transcriptWithTurns(5))
	require.Equal(t, 1, collaborator.calls)
	staleSignature := memoizer.signature

	// A new turn changes the signature, but the derived content matches
	// the approval, so it is reused and the signature is refreshed.
	memoizer.Apply(context.Background(), spec.Normalize(map[string]any{}), transcriptWithTurns(6))

	assert.Equal(t, 1, collaborator.calls)
	assert.Equal(t, 6, memoizer.confirmedTurns)
	assert.NotEqual(t, staleSignature, memoizer.signature)
}

func TestConfirmationReconfirmsChangedContent(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{Items: []string{"Manual intake today"}}}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	memoizer.Apply(context.Background(), spec.Normalize(map[string]any{}), transcriptWithTurns(5))
	require.Equal(t, 1, collaborator.calls)

	deriver.draft = &derive.Draft{Items: []string{"A different current state"}}
	memoizer.Apply(context.Background(), spec.Normalize(map[string]any{}), transcriptWithTurns(6))

	assert.Equal(t, 2, collaborator.calls)
}

func TestConfirmationDerivationFailureUsesFallback(t *testing.T) {
	deriver := &fakeDeriver{err: forgeerrors.NewAIError("scripted", "Chat", "boom")}
	collaborator := &fakeCollaborator{}
	memoizer := NewConfirmationMemoizer(derive.KindAsIs, deriver, collaborator, nil)

	summary := spec.Normalize(map[string]any{
		"current_state": []any{"Existing bullet"},
	})
	memoizer.Apply(context.Background(), summary, transcriptWithTurns(2))

	assert.Equal(t, 0, collaborator.calls)
	assert.Equal(t, []string{"Existing bullet"}, summary.CurrentState)
	assert.False(t, memoizer.approved)
}

func TestConfirmationToBeTrimsApprovedItems(t *testing.T) {
	deriver := &fakeDeriver{draft: &derive.Draft{Items: []string{"Automated intake"}}}
	collaborator := &fakeCollaborator{result: &derive.Result{
		Items:              []string{" Automated intake ", "", "Self-service portal"},
		StakeholderComment: "Approved.",
	}}
	memoizer := NewConfirmationMemoizer(derive.KindToBe, deriver, collaborator, nil)

	summary := spec.Normalize(map[string]any{})
	memoizer.Apply(context.Background(), summary, transcriptWithTurns(3))

	assert.Equal(t, []string{"Automated intake", "Self-service portal"}, summary.FutureState)
}

func TestContentSignatureOrderSensitive(t *testing.T) {
	a := contentSignature([]string{"one", "two"}, nil)
	b := contentSignature([]string{"two", "one"}, nil)
	assert.NotEqual(t, a, b)

	// Whitespace padding is not a real change.
	c := contentSignature([]string{" one ", "two"}, nil)
	assert.Equal(t, a, c)

	p1 := contentSignature(nil, []spec.Process{{Name: "P", HappyPath: []string{"s1"}}})
	p2 := contentSignature(nil, []spec.Process{{Name: "P", HappyPath: []string{"s1", "s2"}}})
	assert.NotEqual(t, p1, p2)
}
