package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/specforge/pkg/diagram"
)

// workflowCmd exports a diagram of the interview workflow itself.
var workflowCmd = &cobra.Command{
	Use:   "workflow-viz",
	Short: "Export a diagram of the interview workflow",
	Long: `Export a Graphviz diagram of the interview workflow: kickoff, the
question loop, summarization, state confirmations, diagram generation, review,
persistence, and closing.

The DOT source is always written to the output directory; the image is
rendered only when Graphviz is installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflowCommand()
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
}

func runWorkflowCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	logger := newLogger()

	renderer, err := buildDiagramRenderer(cfg, logger)
	if err != nil {
		return err
	}
	if renderer == nil {
		// Diagrams are disabled in config, but an explicit request for the
		// workflow diagram should still produce the DOT source.
		renderer, err = diagram.NewRenderer(cfg.Output.Dir, diagram.FormatDOT, logger)
		if err != nil {
			return err
		}
	}

	artifact, err := renderer.RenderWorkflow()
	if err != nil {
		return err
	}

	fmt.Println("Interview workflow diagram written to:")
	fmt.Printf(" - %s\n", artifact.DOTPath)
	if artifact.ImagePath != "" {
		fmt.Printf(" - %s\n", artifact.ImagePath)
	}
	return nil
}
