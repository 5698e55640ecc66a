package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/config"
	"thoreinstein.com/specforge/pkg/interview"
	"thoreinstein.com/specforge/pkg/review"
)

var interviewScope string

// interviewCmd runs an interactive discovery interview on the console.
var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive discovery interview",
	Long: `Run a discovery interview with the AI business analyst.

The agent asks one question at a time across the canonical subject plan,
summarizes the conversation into a functional specification, confirms the
AS-IS and TO-BE state with you, and iterates with an automated reviewer until
the draft converges. The result is exported to the configured output
directory and archived.

Examples:
  specforge interview
  specforge interview --scope process
  specforge interview -s change-request`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInterviewCommand(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringVarP(&interviewScope, "scope", "s", "", "interview scope: project, process, or change_request")
	registerInterviewCapFlags(interviewCmd)
}

func runInterviewCommand(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := applyInterviewCapFlags(cmd, cfg); err != nil {
		return err
	}

	scope, err := config.NormalizeScope(interviewScope, cfg.Interview.DefaultScope)
	if err != nil {
		return err
	}

	logger := newLogger()

	provider, err := ai.NewProvider(&cfg.AI, verbose)
	if err != nil {
		return errors.Wrap(err, "failed to initialize AI provider")
	}
	if !provider.IsAvailable() {
		return errors.Newf("AI provider %q is not available; check configuration and credentials", provider.Name())
	}

	exporter, err := buildExporter(cfg, logger)
	if err != nil {
		return err
	}
	diagrams, err := buildDiagramRenderer(cfg, logger)
	if err != nil {
		return err
	}
	arch, closeArchive := buildArchive(cfg, logger)
	defer closeArchive()

	var agentOpts []interview.Option
	if diagrams != nil {
		agentOpts = append(agentOpts, interview.WithDiagramRenderer(diagrams))
	}
	agent := interview.NewAgent(provider, scope, cfg.Interview.SubjectMaxQuestions, logger, agentOpts...)
	reviewer := review.NewAgent(provider, scope, interview.SubjectNames(), logger)
	loop := interview.NewConvergenceLoop(agent, reviewer,
		interview.NewConsoleAnswerCollector(), cfg.Interview.ReviewMaxPasses, os.Stdout, logger)
	runner := interview.NewRunner(agent, loop, interview.NewConsoleResponder(), os.Stdout)

	fmt.Printf("Starting a %s discovery interview. Answer in your own words; "+
		"say \"done\" when you have nothing to add.\n", scope)

	outcome, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	artifacts, err := exporter.Export(scope, outcome.SpecText)
	if err != nil {
		return err
	}

	fmt.Println("\nInterview complete. Functional specification saved to:")
	fmt.Printf(" - %s\n", artifacts.MarkdownPath)
	if artifacts.PDFPath != "" {
		fmt.Printf(" - %s\n", artifacts.PDFPath)
	}
	for _, warning := range outcome.Warnings {
		fmt.Printf("Review warning: %s\n", warning)
	}

	if recordID := arch.Save(ctx, agent.Transcript(), outcome.SpecText, artifacts.MarkdownPath); recordID != "" {
		fmt.Printf("Transcript id: %s\n", recordID)
	}
	return nil
}
