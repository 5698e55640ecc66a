package review

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/specforge/pkg/ai"
)

// scriptedProvider replays canned responses in order.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) IsAvailable() bool { return true }
func (p *scriptedProvider) Name() string      { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, _ []ai.Message) (*ai.Response, error) {
	content := ""
	if p.calls < len(p.responses) {
		content = p.responses[p.calls]
	}
	p.calls++
	return &ai.Response{Content: content, StopReason: "stop"}, nil
}

func TestRequiresFollowUp(t *testing.T) {
	tests := []struct {
		name   string
		review SpecificationReview
		want   bool
	}{
		{
			name:   "clean review",
			review: SpecificationReview{AllSubjectsPresent: true, TableValid: true},
			want:   false,
		},
		{
			name:   "missing subjects",
			review: SpecificationReview{AllSubjectsPresent: false, TableValid: true},
			want:   true,
		},
		{
			name:   "invalid table",
			review: SpecificationReview{AllSubjectsPresent: true, TableValid: false},
			want:   true,
		},
		{
			name: "follow-ups outstanding",
			review: SpecificationReview{
				AllSubjectsPresent: true,
				TableValid:         true,
				FollowUpQuestions:  []FollowUpQuestion{{Question: "Which KPIs?"}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.review.RequiresFollowUp())
		})
	}
}

func TestFingerprintStability(t *testing.T) {
	first := SpecificationReview{
		AllSubjectsPresent: false,
		MissingSubjects:    []string{"KPI & Success Metrics", "AS IS", "KPI & Success Metrics"},
		TableValid:         false,
		TableFeedback:      "Add FR IDs.",
		FollowUpQuestions:  []FollowUpQuestion{{Question: "Which KPIs?", Subject: "KPI & Success Metrics"}},
	}
	// Same content, different missing-subject ordering and duplication.
	second := SpecificationReview{
		AllSubjectsPresent: false,
		MissingSubjects:    []string{"AS IS", "KPI & Success Metrics"},
		TableValid:         false,
		TableFeedback:      "Add FR IDs.",
		FollowUpQuestions:  []FollowUpQuestion{{Question: "Which KPIs?", Subject: "KPI & Success Metrics"}},
	}

	assert.Equal(t, first.Fingerprint(), second.Fingerprint())

	second.MissingSubjects = append(second.MissingSubjects, "Dependencies & Risks")
	assert.NotEqual(t, first.Fingerprint(), second.Fingerprint())
}

func TestOutstandingItems(t *testing.T) {
	review := SpecificationReview{
		AllSubjectsPresent: false,
		MissingSubjects:    []string{"Dependencies & Risks", "AS IS"},
		TableValid:         false,
		FollowUpQuestions: []FollowUpQuestion{
			{Question: "Who owns deployment?", Subject: "Dependencies & Risks", Reason: "Unclear ownership"},
			{Question: "What is the rollout plan?"},
		},
	}

	items := review.OutstandingItems()
	require.Len(t, items, 4)
	assert.Equal(t, "Subjects still missing: AS IS, Dependencies & Risks", items[0])
	assert.Equal(t, "Functional Requirements table still requires updates to pass validation.", items[1])
	assert.Equal(t, "Follow up on 'Dependencies & Risks': Who owns deployment? (Unclear ownership)", items[2])
	assert.Equal(t, "Follow up needed: What is the rollout plan?", items[3])
}

func TestOutstandingItemsFallsBackToFeedback(t *testing.T) {
	review := SpecificationReview{
		AllSubjectsPresent:     true,
		TableValid:             true,
		FeedbackForInterviewer: "Looks complete.",
	}
	assert.Equal(t, []string{"Looks complete."}, review.OutstandingItems())
}

func TestReviewParsesStructuredResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{`
Here is my assessment:
{
  "all_subjects_present": false,
  "missing_subjects": ["AS IS", ""],
  "table_valid": true,
  "table_feedback": "",
  "follow_up_questions": [
    {"question": "Describe the current intake process.", "subject": "AS IS", "reason": "No current state captured"},
    {"question": ""},
    "not an object"
  ],
  "feedback_for_interviewer": "Cover the current state."
}`}}
	agent := NewAgent(provider, "project", []string{"Product Overview", "AS IS"}, nil)

	review, err := agent.Review(context.Background(), "## Draft")
	require.NoError(t, err)

	assert.False(t, review.AllSubjectsPresent)
	assert.Equal(t, []string{"AS IS"}, review.MissingSubjects)
	assert.True(t, review.TableValid)
	require.Len(t, review.FollowUpQuestions, 1)
	assert.Equal(t, "Describe the current intake process.", review.FollowUpQuestions[0].Question)
	assert.Equal(t, "Cover the current state.", review.FeedbackForInterviewer)
	assert.True(t, review.RequiresFollowUp())
}

func TestReviewEmptyResponseFallback(t *testing.T) {
	subjects := []string{"Product Overview", "AS IS"}
	agent := NewAgent(&scriptedProvider{responses: []string{"   "}}, "project", subjects, nil)

	review, err := agent.Review(context.Background(), "## Draft")
	require.NoError(t, err)

	assert.False(t, review.AllSubjectsPresent)
	assert.Equal(t, subjects, review.MissingSubjects)
	assert.False(t, review.TableValid)
	assert.Equal(t, "Specification review returned no content.", review.FeedbackForInterviewer)
	assert.True(t, review.RequiresFollowUp())
}

func TestReviewUnparsableResponseFallback(t *testing.T) {
	agent := NewAgent(&scriptedProvider{responses: []string{"the table looks wrong"}}, "project", []string{"AS IS"}, nil)

	review, err := agent.Review(context.Background(), "## Draft")
	require.NoError(t, err)

	assert.Equal(t, "Could not parse reviewer JSON output.", review.TableFeedback)
	assert.Equal(t, "the table looks wrong", review.FeedbackForInterviewer)
	assert.True(t, review.RequiresFollowUp())
}

func TestReviewDefaultFeedbackWhenMissing(t *testing.T) {
	agent := NewAgent(&scriptedProvider{responses: []string{
		`{"all_subjects_present": true, "table_valid": true}`,
	}}, "project", []string{"AS IS"}, nil)

	review, err := agent.Review(context.Background(), "## Draft")
	require.NoError(t, err)

	assert.Equal(t, "Specification meets the review checklist.", review.FeedbackForInterviewer)
	assert.False(t, review.RequiresFollowUp())
}
