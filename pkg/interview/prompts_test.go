package interview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTerminationSignal(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"done", true},
		{"  DONE  ", true},
		{"No Further Questions", true},
		{"[end]", true},
		{"[END]", true},
		{"done for today", false},
		{"we automated intake last year", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTerminationSignal(tt.answer), "answer %q", tt.answer)
	}
}

func TestWantsClosingUpdate(t *testing.T) {
	tests := []struct {
		response string
		want     bool
	}{
		{"no", false},
		{"No thanks!", false},
		{"Looks good.", false},
		{"APPROVED", false},
		{"that's all.", false},
		{"", false},
		{"done", false},
		{"[end]", false},
		// Punctuation and casing are stripped before matching.
		{"all good!!", false},
		{"Nothing else. ", false},
		{"please add SSO support", true},
		{"the KPI section needs a baseline", true},
		{"not quite", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WantsClosingUpdate(tt.response), "response %q", tt.response)
	}
}

func TestPromptPackFor(t *testing.T) {
	project := PromptPackFor("project")
	assert.NotEmpty(t, project.Kickoff)
	assert.NotEmpty(t, project.FollowUp)
	assert.True(t, strings.Contains(project.Summarization, "Respond ONLY with valid JSON"),
		"summarization prompt must embed the JSON schema instruction")

	process := PromptPackFor("process")
	change := PromptPackFor("change_request")
	assert.NotEqual(t, project.Kickoff, process.Kickoff)
	assert.NotEqual(t, project.Kickoff, change.Kickoff)

	// Unknown scopes fall back to the project pack.
	fallback := PromptPackFor("something-else")
	assert.Equal(t, project, fallback)
}

func TestSystemGuidanceCombinesPersonaAndFocus(t *testing.T) {
	guidance := SystemGuidance()
	assert.Contains(t, guidance, "Business Analyst")
	assert.Contains(t, guidance, "eliciting requirements")
}
