package cmd

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/config"
	"thoreinstein.com/specforge/pkg/interview"
	"thoreinstein.com/specforge/pkg/simulate"
)

var (
	simulateCount       int
	simulateSeed        int
	simulateSeedSet     bool
	simulatePersonaFile string
	simulateQuiet       bool
	simulateScope       string
)

// simulateCmd runs the full interview workflow against an LLM-played
// stakeholder instead of a human.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated interviews with an AI stakeholder",
	Long: `Run one or more complete interviews where the stakeholder is played by the
AI model using a generated (or file-provided) persona.

Each run produces and archives a functional specification exactly like an
interactive session, which makes this useful for exercising prompt changes
and inspecting end-to-end output.

Examples:
  specforge simulate
  specforge simulate --count 3 --seed 42 --quiet
  specforge simulate --persona-file persona.json --scope process`,
	RunE: func(cmd *cobra.Command, args []string) error {
		simulateSeedSet = cmd.Flags().Changed("seed")
		return runSimulateCommand(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simulateCount, "count", "n", 1, "number of simulations to run")
	simulateCmd.Flags().IntVar(&simulateSeed, "seed", 0, "creative seed for persona generation, incremented per run")
	simulateCmd.Flags().StringVar(&simulatePersonaFile, "persona-file", "", "JSON file with a persona override")
	simulateCmd.Flags().BoolVarP(&simulateQuiet, "quiet", "q", false, "print one summary line per simulation instead of full progress")
	simulateCmd.Flags().StringVarP(&simulateScope, "scope", "s", "", "interview scope: project, process, or change_request")
	registerInterviewCapFlags(simulateCmd)
}

func runSimulateCommand(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if err := applyInterviewCapFlags(cmd, cfg); err != nil {
		return err
	}

	scope, err := config.NormalizeScope(simulateScope, cfg.Interview.DefaultScope)
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

	personaFile := simulatePersonaFile
	if personaFile == "" {
		personaFile = cfg.Simulate.PersonaFile
	}

	opts := simulate.Options{
		Count:       simulateCount,
		PersonaFile: personaFile,
		Quiet:       simulateQuiet,
		Scope:       scope,
	}
	if simulateSeedSet {
		seed := simulateSeed
		opts.Seed = &seed
	}

	var renderer interview.DiagramRenderer
	if diagrams != nil {
		renderer = diagrams
	}
	runner := simulate.NewRunner(provider, exporter, arch, renderer,
		cfg.Interview.SubjectMaxQuestions, cfg.Interview.ReviewMaxPasses, os.Stdout, logger)

	_, err = runner.Run(ctx, opts)
	return err
}
