package simulate

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/archive"
	"thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/export"
	"thoreinstein.com/specforge/pkg/interview"
	"thoreinstein.com/specforge/pkg/review"
)

// Options selects how a batch of simulations runs.
type Options struct {
	Count       int
	Seed        *int
	PersonaFile string
	Quiet       bool
	Scope       string
}

// RunResult summarizes one finished simulation.
type RunResult struct {
	Index          int
	PersonaProject string
	SpecPath       string
	PDFPath        string
	RecordID       string
	State          interview.LoopState
	Warnings       []string
}

// Runner executes simulated interviews with shared infrastructure.
type Runner struct {
	provider            ai.Provider
	exporter            *export.Exporter
	archive             *archive.Archive
	diagrams            interview.DiagramRenderer
	subjectMaxQuestions int
	reviewMaxPasses     int
	out                 io.Writer
	logger              *slog.Logger

	// newReviewer is swappable so tests can script review outcomes.
	newReviewer func(scope string) interview.Reviewer
}

// NewRunner assembles a simulation runner. diagrams may be nil; out may be
// nil to suppress progress output.
func NewRunner(provider ai.Provider, exporter *export.Exporter, arch *archive.Archive,
	diagrams interview.DiagramRenderer, subjectMaxQuestions, reviewMaxPasses int,
	out io.Writer, logger *slog.Logger) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		provider:            provider,
		exporter:            exporter,
		archive:             arch,
		diagrams:            diagrams,
		subjectMaxQuestions: subjectMaxQuestions,
		reviewMaxPasses:     reviewMaxPasses,
		out:                 out,
		logger:              logger,
		newReviewer: func(scope string) interview.Reviewer {
			return review.NewAgent(provider, scope, interview.SubjectNames(), logger)
		},
	}
}

// Run executes opts.Count simulations sequentially. Each run gets its own
// persona (seed incremented per run) and a fresh interview agent.
func (r *Runner) Run(ctx context.Context, opts Options) ([]RunResult, error) {
	if opts.Count < 1 {
		return nil, errors.NewConfigError("simulate.count", "count must be >= 1")
	}

	var personaOverride map[string]any
	if opts.PersonaFile != "" {
		override, err := LoadPersonaFile(opts.PersonaFile)
		if err != nil {
			return nil, err
		}
		personaOverride = override
	}

	results := make([]RunResult, 0, opts.Count)
	for index := 1; index <= opts.Count; index++ {
		var seed *int
		if opts.Seed != nil {
			value := *opts.Seed + index - 1
			seed = &value
		}

		result, err := r.runOne(ctx, opts, index, seed, personaOverride)
		if err != nil {
			return results, err
		}
		results = append(results, *result)

		if opts.Quiet {
			r.printQuietSummary(opts.Count, result)
		}
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, opts Options, index int, seed *int, personaOverride map[string]any) (*RunResult, error) {
	var persona Persona
	if personaOverride != nil {
		persona = PersonaFromMap(personaOverride)
	} else {
		persona = GeneratePersona(ctx, r.provider, opts.Scope, seed, r.logger)
	}
	responder := NewStakeholderResponder(persona, r.provider, r.logger)

	progress := r.out
	if opts.Quiet {
		progress = io.Discard
	}
	fmt.Fprintf(progress, "Simulated stakeholder persona:\n\n")
	for _, line := range persona.SummaryLines() {
		fmt.Fprintf(progress, "  %s\n", line)
	}
	fmt.Fprintln(progress)

	agentOpts := []interview.Option{
		interview.WithConfirmationCollaborators(responder, responder),
	}
	if r.diagrams != nil {
		agentOpts = append(agentOpts, interview.WithDiagramRenderer(r.diagrams))
	}
	agent := interview.NewAgent(r.provider, opts.Scope, r.subjectMaxQuestions, r.logger, agentOpts...)
	loop := interview.NewConvergenceLoop(agent, r.newReviewer(opts.Scope), responder,
		r.reviewMaxPasses, progress, r.logger)
	runner := interview.NewRunner(agent, loop, responder, progress)

	outcome, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Index:          index,
		PersonaProject: persona.ProjectName,
		State:          outcome.State,
		Warnings:       outcome.Warnings,
	}

	if r.exporter != nil {
		artifacts, err := r.exporter.Export(opts.Scope, outcome.SpecText)
		if err != nil {
			return nil, err
		}
		result.SpecPath = artifacts.MarkdownPath
		result.PDFPath = artifacts.PDFPath
	}
	if r.archive != nil {
		result.RecordID = r.archive.Save(ctx, agent.Transcript(), outcome.SpecText, result.SpecPath)
	}

	fmt.Fprintln(progress, "Simulation complete. Functional specification saved to:")
	if result.SpecPath != "" {
		fmt.Fprintf(progress, " - %s\n", result.SpecPath)
	}
	if result.PDFPath != "" {
		fmt.Fprintf(progress, " - %s\n", result.PDFPath)
	}
	if result.RecordID != "" {
		fmt.Fprintf(progress, "Transcript id: %s\n", result.RecordID)
	}
	return result, nil
}

func (r *Runner) printQuietSummary(total int, result *RunResult) {
	summary := fmt.Sprintf("Simulation %d/%d -> %s => %s",
		result.Index, total, result.PersonaProject, result.SpecPath)
	if len(result.Warnings) > 0 {
		summary += " (review warnings)"
	}
	fmt.Fprintln(r.out, summary)
	if result.PDFPath != "" {
		fmt.Fprintf(r.out, "    PDF: %s\n", result.PDFPath)
	}
	for _, note := range result.Warnings {
		fmt.Fprintf(r.out, "    - %s\n", note)
	}
}
