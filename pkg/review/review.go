// Package review checks functional-specification drafts for completeness and
// produces structured reviewer feedback the interview loop can act on.
package review

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FollowUpQuestion is a targeted question the reviewer wants asked before the
// specification can be accepted.
type FollowUpQuestion struct {
	Question string `json:"question"`
	Subject  string `json:"subject,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SpecificationReview is the outcome of one review pass over a draft.
type SpecificationReview struct {
	AllSubjectsPresent     bool
	MissingSubjects        []string
	TableValid             bool
	TableFeedback          string
	FollowUpQuestions      []FollowUpQuestion
	FeedbackForInterviewer string
}

// RequiresFollowUp reports whether the draft needs another pass before it can
// be accepted.
func (r *SpecificationReview) RequiresFollowUp() bool {
	return !r.AllSubjectsPresent || !r.TableValid || len(r.FollowUpQuestions) > 0
}

// Fingerprint returns a stable serialization of the review outcome. Two
// reviews with identical content always fingerprint identically, so the
// convergence loop can detect a reviewer repeating itself.
func (r *SpecificationReview) Fingerprint() string {
	missing := make([]string, 0, len(r.MissingSubjects))
	seen := make(map[string]struct{}, len(r.MissingSubjects))
	for _, subject := range r.MissingSubjects {
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		missing = append(missing, subject)
	}
	sort.Strings(missing)

	followUps := make([]map[string]any, 0, len(r.FollowUpQuestions))
	for _, item := range r.FollowUpQuestions {
		entry := map[string]any{
			"question": item.Question,
			"subject":  nil,
			"reason":   nil,
		}
		if item.Subject != "" {
			entry["subject"] = item.Subject
		}
		if item.Reason != "" {
			entry["reason"] = item.Reason
		}
		followUps = append(followUps, entry)
	}

	payload := map[string]any{
		"all_subjects_present":     r.AllSubjectsPresent,
		"missing_subjects":         missing,
		"table_valid":              r.TableValid,
		"table_feedback":           r.TableFeedback,
		"follow_up_questions":      followUps,
		"feedback_for_interviewer": r.FeedbackForInterviewer,
	}

	// Marshal of map keys is sorted, so the serialization is deterministic.
	data, err := json.Marshal(payload)
	if err != nil {
		// The payload is plain strings and bools; marshal cannot fail.
		return fmt.Sprintf("%+v", payload)
	}
	return string(data)
}

// OutstandingItems summarizes review concerns that remain unresolved, in the
// form surfaced to the operator when the loop stalls.
func (r *SpecificationReview) OutstandingItems() []string {
	var items []string
	if len(r.MissingSubjects) > 0 {
		missing := make([]string, 0, len(r.MissingSubjects))
		seen := make(map[string]struct{}, len(r.MissingSubjects))
		for _, subject := range r.MissingSubjects {
			if _, ok := seen[subject]; ok {
				continue
			}
			seen[subject] = struct{}{}
			missing = append(missing, subject)
		}
		sort.Strings(missing)
		items = append(items, "Subjects still missing: "+strings.Join(missing, ", "))
	}
	if !r.TableValid {
		if r.TableFeedback != "" {
			items = append(items, r.TableFeedback)
		} else {
			items = append(items, "Functional Requirements table still requires updates to pass validation.")
		}
	}
	for _, followUp := range r.FollowUpQuestions {
		detail := followUp.Question
		if followUp.Reason != "" {
			detail = fmt.Sprintf("%s (%s)", detail, followUp.Reason)
		}
		if followUp.Subject != "" {
			items = append(items, fmt.Sprintf("Follow up on '%s': %s", followUp.Subject, detail))
		} else {
			items = append(items, "Follow up needed: "+detail)
		}
	}
	if len(items) == 0 && r.FeedbackForInterviewer != "" {
		items = append(items, r.FeedbackForInterviewer)
	}
	return items
}
