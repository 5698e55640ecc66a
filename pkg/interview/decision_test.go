package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestionDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want QuestionDecision
	}{
		{
			name: "structured decision",
			raw:  `{"question": "What KPIs matter most?", "subject_complete": false, "notes": "still probing"}`,
			want: QuestionDecision{Question: "What KPIs matter most?", Notes: "still probing"},
		},
		{
			name: "subject complete",
			raw:  `{"question": "", "subject_complete": true}`,
			want: QuestionDecision{SubjectComplete: true},
		},
		{
			name: "json wrapped in prose",
			raw:  "Sure, here you go:\n{\"question\": \"Who approves budgets?\", \"subject_complete\": false}",
			want: QuestionDecision{Question: "Who approves budgets?"},
		},
		{
			name: "free-form fallback",
			raw:  "What does your current workflow look like?",
			want: QuestionDecision{Question: "What does your current workflow look like?"},
		},
		{
			name: "empty response means exhausted",
			raw:  "   ",
			want: QuestionDecision{SubjectComplete: true},
		},
		{
			name: "missing fields default",
			raw:  `{"notes": null}`,
			want: QuestionDecision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuestionDecision(tt.raw))
		})
	}
}

func TestComposeDecisionInstruction(t *testing.T) {
	planner := NewPlanner(3)
	planner.MarkComplete(0)
	planner.RecordAsked(1)

	instruction := composeDecisionInstruction(planner, 1, false, PromptPackFor("project"))

	assert.Contains(t, instruction, "1. Product Overview (complete)")
	assert.Contains(t, instruction, "2. KPI & Success Metrics (current)")
	assert.Contains(t, instruction, "3. AS IS (pending)")
	assert.Contains(t, instruction, "Current subject: KPI & Success Metrics.")
	assert.Contains(t, instruction, "Questions asked for this subject: 1. Maximum allowed: 3.")
	assert.Contains(t, instruction, "You may ask up to 2 more question(s) if they add value.")
	assert.Contains(t, instruction, `"subject_complete": false`)
}

func TestComposeDecisionInstructionUsesKickoffStyle(t *testing.T) {
	planner := NewPlanner(3)
	pack := PromptPackFor("project")

	initial := composeDecisionInstruction(planner, 0, true, pack)
	followUp := composeDecisionInstruction(planner, 0, false, pack)

	assert.Contains(t, initial, pack.Kickoff)
	assert.Contains(t, followUp, pack.FollowUp)
}
