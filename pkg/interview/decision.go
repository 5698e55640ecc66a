package interview

import (
	"fmt"
	"strings"

	"thoreinstein.com/specforge/pkg/spec"
)

// QuestionDecision is the model's verdict on the next subject question:
// either a question to ask, or a signal that the subject is exhausted.
type QuestionDecision struct {
	Question        string
	SubjectComplete bool
	Notes           string
}

// ParseQuestionDecision decodes a question-decision response. Malformed
// output never fails: free-form text becomes the question itself, and an
// empty response reads as "subject complete".
func ParseQuestionDecision(raw string) QuestionDecision {
	text := strings.TrimSpace(raw)
	if text == "" {
		return QuestionDecision{SubjectComplete: true}
	}
	data := spec.ExtractJSONObject(text)
	if data == nil {
		return QuestionDecision{Question: text}
	}

	decision := QuestionDecision{}
	if question, ok := data["question"]; ok {
		decision.Question = strings.TrimSpace(fmt.Sprint(question))
	}
	if complete, ok := data["subject_complete"].(bool); ok {
		decision.SubjectComplete = complete
	}
	if notes, ok := data["notes"]; ok && notes != nil {
		decision.Notes = fmt.Sprint(notes)
	}
	return decision
}

// composeDecisionInstruction builds the control prompt for one
// question-decision call: the full subject plan with per-subject status, the
// current subject's remaining budget, and the JSON response contract.
func composeDecisionInstruction(planner *Planner, subjectIndex int, initial bool, pack PromptPack) string {
	styleGuidance := pack.FollowUp
	if initial {
		styleGuidance = pack.Kickoff
	}

	var b strings.Builder
	b.WriteString(styleGuidance)
	b.WriteString("\n\nSubject plan:\n")
	for idx, subject := range subjectPlan {
		status := "pending"
		switch {
		case planner.Completed(idx):
			status = "complete"
		case idx == subjectIndex:
			status = "current"
		}
		fmt.Fprintf(&b, "%d. %s (%s) - %s\n", idx+1, subject.Name, status, subject.Focus)
	}

	subject := planner.Subject(subjectIndex)
	asked := planner.QuestionsAsked(subjectIndex)
	fmt.Fprintf(&b, "\nCurrent subject: %s. Focus: %s\n", subject.Name, subject.Focus)
	fmt.Fprintf(&b, "Questions asked for this subject: %d. Maximum allowed: %d.\n",
		asked, planner.MaxQuestions())
	fmt.Fprintf(&b, "You may ask up to %d more question(s) if they add value.\n",
		planner.RemainingBudget(subjectIndex))
	b.WriteString("Decide whether another question is required. Ask only if it will reveal new or clarifying information.\n")
	b.WriteString("Respond ONLY with valid JSON using double quotes and no extra commentary.\n")
	b.WriteString(`{"question": "your next question", "subject_complete": false, "notes": "optional short rationale"}` + "\n")
	b.WriteString(`If no further question is needed, set "question" to an empty string and "subject_complete" to true.` + "\n")
	b.WriteString("If every subject is complete, also set subject_complete to true with an empty question.\n")
	b.WriteString("Keep the question conversational, professional, and grounded in prior answers.")
	return b.String()
}
