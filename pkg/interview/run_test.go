package interview

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerrors "thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/review"
)

// fakeResponder replays scripted answers and a fixed closing reply.
type fakeResponder struct {
	answers  []string
	closing  string
	answered int
	specSeen string
}

func (r *fakeResponder) Answer(_ context.Context, _ string) (string, error) {
	if r.answered >= len(r.answers) {
		return "done", nil
	}
	answer := r.answers[r.answered]
	r.answered++
	return answer, nil
}

func (r *fakeResponder) ClosingFeedback(_ context.Context, specText string) (string, error) {
	r.specSeen = specText
	return r.closing, nil
}

func newRunnerFixture(provider *scriptedProvider, reviewer Reviewer, responder Responder) (*Runner, *Agent, *bytes.Buffer) {
	agent := NewAgent(provider, "project", 2, nil)
	failing := &fakeDeriver{err: forgeerrors.NewAIError("scripted", "Chat", "unavailable")}
	agent.asIs.deriver = failing
	agent.toBe.deriver = failing

	var out bytes.Buffer
	loop := NewConvergenceLoop(agent, reviewer, &fakeCollector{answer: "noted"}, 3, &out, nil)
	return NewRunner(agent, loop, responder, &out), agent, &out
}

func TestRunnerCompletesOnTermination(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		decisionJSON("What is the product vision?"),
		decisionJSON("Who are the primary users?"),
		`{"title": "Claims Triage"}`,
	}}
	responder := &fakeResponder{
		answers: []string{"A claims triage portal.", "done"},
		closing: "no",
	}
	reviewer := &fakeReviewer{reviews: []*review.SpecificationReview{acceptingReview()}}
	runner, agent, out := newRunnerFixture(provider, reviewer, responder)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, LoopAccepted, result.State)
	assert.Contains(t, result.SpecText, "Claims Triage")
	assert.Empty(t, result.Warnings)
	assert.Contains(t, responder.specSeen, "Claims Triage")

	// The closing exchange lands in the transcript with the canned reply.
	turns := agent.Transcript().Turns
	last := turns[len(turns)-1]
	assert.Equal(t, ClosingPrompt, last.Question)
	assert.Equal(t, "no", last.Answer)

	output := out.String()
	assert.Contains(t, output, "What is the product vision?")
	assert.Contains(t, output, "keep the specification as-is")
}

func TestRunnerRevisesOnClosingFeedback(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		decisionJSON("What is the product vision?"),
		`{"title": "Claims Triage"}`,
	}}
	responder := &fakeResponder{
		answers: []string{"done"},
		closing: "Please add SSO as a requirement.",
	}
	reviewer := &fakeReviewer{reviews: []*review.SpecificationReview{acceptingReview()}}
	runner, _, out := newRunnerFixture(provider, reviewer, responder)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, LoopAccepted, result.State)
	// The closing request triggers a second full convergence pass.
	assert.Equal(t, 2, reviewer.calls)
	assert.Contains(t, out.String(), "incorporate that feedback")
}

func TestRunnerStopsQuestioningWhenPlanExhausted(t *testing.T) {
	// The model declares every subject complete, so the question phase ends
	// without a termination token from the stakeholder.
	provider := &scriptedProvider{responses: []string{
		decisionJSON("What is the product vision?"),
		`{"question": "", "subject_complete": true}`,
	}}
	responder := &fakeResponder{
		answers: []string{"A claims triage portal.", "More detail than needed."},
		closing: "no",
	}
	reviewer := &fakeReviewer{reviews: []*review.SpecificationReview{acceptingReview()}}
	runner, agent, _ := newRunnerFixture(provider, reviewer, responder)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoopAccepted, result.State)

	// One real answer, then every remaining subject resolved to complete.
	assert.Equal(t, 1, responder.answered)
	for _, turn := range agent.Transcript().Turns[:1] {
		assert.NotEmpty(t, turn.Question)
	}
}

func TestConsoleResponderTrimsInput(t *testing.T) {
	input := strings.NewReader("  first answer  \nno\n")
	var out bytes.Buffer
	responder := NewConsoleResponderWithIO(input, &out)

	answer, err := responder.Answer(context.Background(), "Question?")
	require.NoError(t, err)
	assert.Equal(t, "first answer", answer)

	closing, err := responder.ClosingFeedback(context.Background(), "spec text")
	require.NoError(t, err)
	assert.Equal(t, "no", closing)
	assert.Contains(t, out.String(), "You: ")
}
