package interview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Responder supplies stakeholder replies during an interview: a human on the
// console, or a simulated stakeholder during batch runs.
type Responder interface {
	// Answer returns the stakeholder's reply to an interviewer question.
	Answer(ctx context.Context, question string) (string, error)
	// ClosingFeedback returns the reply to the closing prompt. The current
	// specification text is provided for context; interactive
	// implementations may ignore it.
	ClosingFeedback(ctx context.Context, specText string) (string, error)
}

// RunResult is the outcome of a complete interview run.
type RunResult struct {
	SpecText string
	State    LoopState
	Warnings []string
}

// Runner drives a complete interview: kickoff, the Q&A phase, the review
// convergence loop, and the closing-feedback round.
type Runner struct {
	agent     *Agent
	loop      *ConvergenceLoop
	responder Responder
	out       io.Writer
}

// NewRunner assembles a runner. Operator progress is written to out; pass
// nil to suppress it.
func NewRunner(agent *Agent, loop *ConvergenceLoop, responder Responder, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{agent: agent, loop: loop, responder: responder, out: out}
}

// Run conducts the interview to completion and returns the final
// specification text.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	question, err := r.agent.Kickoff(ctx)
	if err != nil {
		return nil, err
	}
	r.agent.RecordQuestion(question)
	fmt.Fprintf(r.out, "\nBA Agent: %s\n", question)

	for {
		answer, err := r.responder.Answer(ctx, question)
		if err != nil {
			return nil, err
		}
		if IsTerminationSignal(answer) {
			break
		}
		followUp, err := r.agent.NextQuestion(ctx, answer)
		if err != nil {
			return nil, err
		}
		if followUp == "" {
			break
		}
		r.agent.RecordQuestion(followUp)
		fmt.Fprintf(r.out, "\nBA Agent: %s\n", followUp)
		question = followUp
	}

	outcome, err := r.loop.Run(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(r.out, "BA Agent: %s\n", ClosingPrompt)
	closingResponse, err := r.responder.ClosingFeedback(ctx, outcome.Markdown)
	if err != nil {
		return nil, err
	}
	r.agent.RecordQuestionWithAnswer(ClosingPrompt, closingResponse)

	if WantsClosingUpdate(closingResponse) {
		fmt.Fprintln(r.out, "\nBA Agent: Thanks! I'll incorporate that feedback into the specification.")
		outcome, err = r.loop.Run(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		fmt.Fprintln(r.out, "\nBA Agent: Understood. We'll keep the specification as-is.")
	}

	return &RunResult{
		SpecText: outcome.Markdown,
		State:    outcome.State,
		Warnings: outcome.Warnings,
	}, nil
}

// ConsoleResponder reads stakeholder replies from the terminal.
type ConsoleResponder struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewConsoleResponder creates a responder bound to stdin/stdout.
func NewConsoleResponder() *ConsoleResponder {
	return NewConsoleResponderWithIO(os.Stdin, os.Stdout)
}

// NewConsoleResponderWithIO creates a responder with custom streams, used in
// tests.
func NewConsoleResponderWithIO(reader io.Reader, writer io.Writer) *ConsoleResponder {
	return &ConsoleResponder{reader: bufio.NewReader(reader), writer: writer}
}

// Answer reads one reply line.
func (c *ConsoleResponder) Answer(_ context.Context, _ string) (string, error) {
	return c.readLine()
}

// ClosingFeedback reads the closing reply; the spec text is already on
// screen so it is not repeated.
func (c *ConsoleResponder) ClosingFeedback(_ context.Context, _ string) (string, error) {
	return c.readLine()
}

func (c *ConsoleResponder) readLine() (string, error) {
	fmt.Fprint(c.writer, "You: ")
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
