package interview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"thoreinstein.com/specforge/pkg/review"
)

// LoopState is the terminal state of a review convergence run.
type LoopState string

const (
	// LoopAccepted means the reviewer accepted the draft.
	LoopAccepted LoopState = "accepted"
	// LoopStalled means the loop stopped on repeated feedback or the pass
	// cap; finalization still proceeded with outstanding warnings.
	LoopStalled LoopState = "stalled"
)

// Reviewer is the review-pass contract consumed by the loop. Satisfied by
// review.Agent.
type Reviewer interface {
	Review(ctx context.Context, specificationMarkdown string) (*review.SpecificationReview, error)
}

// FollowUpPrompt is a reviewer follow-up presented for answering.
type FollowUpPrompt struct {
	Question string
	Subject  string
	Reason   string
}

// AnswerCollector obtains the stakeholder's answer to a follow-up question,
// from the console or a simulated stakeholder.
type AnswerCollector interface {
	CollectAnswer(ctx context.Context, prompt FollowUpPrompt) (string, error)
}

// LoopOutcome is the result of one convergence run.
type LoopOutcome struct {
	Markdown string
	State    LoopState
	Warnings []string
	Passes   int
}

// ConvergenceLoop repeatedly summarizes and reviews the specification until
// the reviewer accepts it, feedback repeats verbatim, or the pass cap is
// reached. Termination is guaranteed by the fingerprint set and the cap.
type ConvergenceLoop struct {
	agent     *Agent
	reviewer  Reviewer
	collector AnswerCollector
	maxPasses int
	out       io.Writer
	logger    *slog.Logger
}

// NewConvergenceLoop creates a loop bound to an agent and reviewer. Operator
// progress is written to out; pass nil to suppress it.
func NewConvergenceLoop(agent *Agent, reviewer Reviewer, collector AnswerCollector, maxPasses int, out io.Writer, logger *slog.Logger) *ConvergenceLoop {
	if maxPasses < 1 {
		maxPasses = 1
	}
	if out == nil {
		out = io.Discard
	}
	return &ConvergenceLoop{
		agent:     agent,
		reviewer:  reviewer,
		collector: collector,
		maxPasses: maxPasses,
		out:       out,
		logger:    logger,
	}
}

// Run drives summarize/review passes to a terminal state and finalizes the
// resulting draft (confirmation rounds included). Only transport failures
// return an error; review non-convergence is a designed outcome.
func (l *ConvergenceLoop) Run(ctx context.Context) (*LoopOutcome, error) {
	seenFingerprints := make(map[string]struct{})
	var warnings []string
	attempts := 0
	passes := 0

	for {
		specText, err := l.agent.Summarize(ctx)
		if err != nil {
			return nil, err
		}
		passes++

		fmt.Fprintf(l.out, "\nFunctional specification draft:\n\n%s\n\n", specText)

		rev, err := l.reviewer.Review(ctx, specText)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(l.out, "Reviewer Agent: %s\n", rev.FeedbackForInterviewer)

		if !rev.RequiresFollowUp() {
			l.agent.ClearReviewCorrections()
			finalText, err := l.agent.FinalizeCurrentSummary(ctx)
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(l.out, "\nFunctional specification draft (state confirmed):\n\n%s\n\n", finalText)
			return &LoopOutcome{
				Markdown: finalText,
				State:    LoopAccepted,
				Passes:   passes,
			}, nil
		}

		if len(rev.MissingSubjects) > 0 {
			fmt.Fprintf(l.out, "Missing subjects flagged: %s\n", strings.Join(rev.MissingSubjects, ", "))
		}
		if !rev.TableValid && rev.TableFeedback != "" {
			fmt.Fprintf(l.out, "Table guidance: %s\n", rev.TableFeedback)
		}

		fingerprint := rev.Fingerprint()
		if _, seen := seenFingerprints[fingerprint]; seen {
			fmt.Fprintln(l.out, "Reviewer Agent: Same feedback repeated. Stopping automatic retries to avoid a loop.")
			warnings = rev.OutstandingItems()
			break
		}
		seenFingerprints[fingerprint] = struct{}{}

		if attempts >= l.maxPasses {
			fmt.Fprintf(l.out, "Reviewer Agent: Maximum review passes reached (%d).\n", l.maxPasses)
			warnings = rev.OutstandingItems()
			break
		}
		attempts++

		l.agent.ApplyReviewFeedback(rev)
		if err := l.collectFollowUps(ctx, rev); err != nil {
			return nil, err
		}
		fmt.Fprintln(l.out, "\nBA Agent: Thanks. I'll incorporate that information before regenerating the specification.")
	}

	if len(warnings) > 0 {
		fmt.Fprintln(l.out, "\nReviewer Agent: Unable to auto-resolve the remaining feedback. Please handle these items manually:")
		for _, note := range warnings {
			fmt.Fprintf(l.out, "  - %s\n", note)
		}
		fmt.Fprintln(l.out)
	}

	finalText, err := l.agent.FinalizeCurrentSummary(ctx)
	if err != nil {
		return nil, err
	}
	return &LoopOutcome{
		Markdown: finalText,
		State:    LoopStalled,
		Warnings: warnings,
		Passes:   passes,
	}, nil
}

func (l *ConvergenceLoop) collectFollowUps(ctx context.Context, rev *review.SpecificationReview) error {
	followUps := rev.FollowUpQuestions
	if len(followUps) == 0 {
		followUps = []review.FollowUpQuestion{{
			Question: "Please share the additional details requested by the reviewer " +
				"so the specification can be completed.",
		}}
	}
	for _, followUp := range followUps {
		answer, err := l.collector.CollectAnswer(ctx, FollowUpPrompt{
			Question: followUp.Question,
			Subject:  followUp.Subject,
			Reason:   followUp.Reason,
		})
		if err != nil {
			return err
		}
		l.agent.RecordManualFollowUp(followUp.Question, answer, followUp.Subject)
	}
	return nil
}

// ConsoleAnswerCollector reads follow-up answers interactively from the
// terminal.
type ConsoleAnswerCollector struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConsoleAnswerCollector creates a collector bound to stdin/stdout.
func NewConsoleAnswerCollector() *ConsoleAnswerCollector {
	return NewConsoleAnswerCollectorWithIO(os.Stdin, os.Stdout)
}

// NewConsoleAnswerCollectorWithIO creates a collector with custom streams,
// used in tests.
func NewConsoleAnswerCollectorWithIO(reader io.Reader, writer io.Writer) *ConsoleAnswerCollector {
	return &ConsoleAnswerCollector{reader: bufio.NewReader(reader), writer: writer}
}

// CollectAnswer displays the follow-up and reads one answer line.
func (c *ConsoleAnswerCollector) CollectAnswer(_ context.Context, prompt FollowUpPrompt) (string, error) {
	fmt.Fprintf(c.writer, "\nBA Agent: %s\n", prompt.Question)
	if prompt.Reason != "" {
		fmt.Fprintf(c.writer, "  (Reviewer note: %s)\n", prompt.Reason)
	}
	fmt.Fprint(c.writer, "You: ")
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
