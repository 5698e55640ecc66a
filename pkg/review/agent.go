package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/spec"
)

const reviewerSystemPrompt = "You enforce specification QA standards."

const reviewerPromptTemplate = `You are an experienced Business Analyst quality reviewer. Evaluate the functional specification for completeness and formatting.

Engagement scope: %s.

Interview subjects that must be represented in the final document (use these names exactly when referencing them):
%s

Checklist:
- Confirm each subject above is covered with actionable detail.
- Verify the specification includes a Markdown table titled 'Functional Requirements' with columns 'Spec ID', 'Specification Description', and 'Business Rules/Data Dependency'.
- Each Spec ID must follow the sequential pattern FR-1, FR-2, etc., without skipping numbers.
- The description column should be concise (1-3 sentences).
- The third column must clearly state validation or business rules and relevant data dependencies.
- If anything is missing, craft targeted follow-up question(s) the interviewer can ask the stakeholder to resolve it.

Respond ONLY with JSON using this schema:{
  "all_subjects_present": bool,
  "missing_subjects": [string],
  "table_valid": bool,
  "table_feedback": string,
  "follow_up_questions": [
    {
      "question": string,
      "subject": string | null,
      "reason": string
    }
  ],
  "feedback_for_interviewer": string
}
If the table needs changes, set table_valid to false and provide actionable guidance in table_feedback.
Provide at least one follow_up_question whenever information is missing or the table needs corrections.
Do not include any text outside of the JSON object.

Functional specification to review:
<<<
%s
>>>`

// Agent reviews functional-specification drafts for completeness and format.
type Agent struct {
	provider ai.Provider
	scope    string
	subjects []string
	logger   *slog.Logger
}

// NewAgent creates a reviewer bound to a scope and the ordered subject list
// the document must cover.
func NewAgent(provider ai.Provider, scope string, subjects []string, logger *slog.Logger) *Agent {
	return &Agent{
		provider: provider,
		scope:    scope,
		subjects: append([]string(nil), subjects...),
		logger:   logger,
	}
}

// Review inspects a functional specification draft and flags missing items.
// Malformed reviewer output degrades to a review that requests follow-up
// rather than an error.
func (a *Agent) Review(ctx context.Context, specificationMarkdown string) (*SpecificationReview, error) {
	subjectLines := make([]string, 0, len(a.subjects))
	for _, name := range a.subjects {
		subjectLines = append(subjectLines, "- "+name)
	}
	scopeLabel := strings.ReplaceAll(a.scope, "_", " ")
	prompt := fmt.Sprintf(reviewerPromptTemplate,
		scopeLabel,
		strings.Join(subjectLines, "\n"),
		strings.TrimSpace(specificationMarkdown))

	response, err := a.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: reviewerSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	return a.parseResponse(response.Content), nil
}

func (a *Agent) parseResponse(raw string) *SpecificationReview {
	text := strings.TrimSpace(raw)
	if text == "" {
		return &SpecificationReview{
			AllSubjectsPresent:     false,
			MissingSubjects:        append([]string(nil), a.subjects...),
			TableValid:             false,
			TableFeedback:          "Specification review returned no content and could not complete the checklist.",
			FeedbackForInterviewer: "Specification review returned no content.",
		}
	}

	data := spec.ExtractJSONObject(text)
	if data == nil {
		if a.logger != nil {
			a.logger.Debug("reviewer output was not valid JSON", "raw_length", len(text))
		}
		return &SpecificationReview{
			AllSubjectsPresent:     false,
			MissingSubjects:        append([]string(nil), a.subjects...),
			TableValid:             false,
			TableFeedback:          "Could not parse reviewer JSON output.",
			FeedbackForInterviewer: text,
		}
	}

	review := &SpecificationReview{
		AllSubjectsPresent: asBool(data["all_subjects_present"]),
		TableValid:         asBool(data["table_valid"]),
		TableFeedback:      asString(data["table_feedback"]),
	}
	if entries, ok := data["missing_subjects"].([]any); ok {
		for _, entry := range entries {
			if subject := asString(entry); subject != "" {
				review.MissingSubjects = append(review.MissingSubjects, subject)
			}
		}
	}
	if entries, ok := data["follow_up_questions"].([]any); ok {
		for _, entry := range entries {
			item, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			question := asString(item["question"])
			if question == "" {
				continue
			}
			review.FollowUpQuestions = append(review.FollowUpQuestions, FollowUpQuestion{
				Question: question,
				Subject:  asString(item["subject"]),
				Reason:   asString(item["reason"]),
			})
		}
	}

	review.FeedbackForInterviewer = asString(data["feedback_for_interviewer"])
	if review.FeedbackForInterviewer == "" {
		switch {
		case !review.AllSubjectsPresent:
			review.FeedbackForInterviewer = "Specification appears to miss one or more interview subjects."
		case !review.TableValid:
			review.FeedbackForInterviewer = "Requirements table formatting appears incorrect."
		case len(review.FollowUpQuestions) > 0:
			review.FeedbackForInterviewer = "Additional clarifications are recommended based on the draft."
		default:
			review.FeedbackForInterviewer = "Specification meets the review checklist."
		}
	}

	return review
}

func asBool(value any) bool {
	b, _ := value.(bool)
	return b
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
