package cmd

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/specforge/pkg/archive"
	"thoreinstein.com/specforge/pkg/config"
	"thoreinstein.com/specforge/pkg/diagram"
	"thoreinstein.com/specforge/pkg/export"
)

var (
	flagSubjectMaxQuestions int
	flagReviewMaxPasses     int
)

// registerInterviewCapFlags adds the per-subject question cap and review
// pass cap flags shared by the interview and simulate commands. The config
// values remain the defaults; the flags override them for one run.
func registerInterviewCapFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagSubjectMaxQuestions, "subject-max-questions", 0, "per-subject question cap, overriding the configured value")
	cmd.Flags().IntVar(&flagReviewMaxPasses, "review-max-passes", 0, "review convergence pass cap, overriding the configured value")
}

// applyInterviewCapFlags layers explicitly set cap flags over the loaded
// configuration. Values below 1 are rejected.
func applyInterviewCapFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("subject-max-questions") {
		if flagSubjectMaxQuestions < 1 {
			return errors.New("--subject-max-questions must be >= 1")
		}
		cfg.Interview.SubjectMaxQuestions = flagSubjectMaxQuestions
	}
	if cmd.Flags().Changed("review-max-passes") {
		if flagReviewMaxPasses < 1 {
			return errors.New("--review-max-passes must be >= 1")
		}
		cfg.Interview.ReviewMaxPasses = flagReviewMaxPasses
	}
	return nil
}

// buildExporter creates the specification exporter from configuration.
func buildExporter(cfg *config.Config, logger *slog.Logger) (*export.Exporter, error) {
	return export.NewExporter(cfg.Output.Dir, cfg.Output.RenderPDF, logger)
}

// buildDiagramRenderer creates the Graphviz renderer, or returns nil when
// diagrams are disabled via an empty diagram_cmd.
func buildDiagramRenderer(cfg *config.Config, logger *slog.Logger) (*diagram.Renderer, error) {
	if cfg.Output.DiagramCmd == "" {
		return nil, nil
	}
	renderer, err := diagram.NewRenderer(cfg.Output.Dir, diagram.FormatSVG, logger)
	if err != nil {
		return nil, err
	}
	renderer.SetCommand(cfg.Output.DiagramCmd)
	return renderer, nil
}

// buildArchive assembles the transcript archive: the JSONL log is always on,
// the SQLite index and Redis mirror are attached when configured. Optional
// layers that fail to open are logged and skipped so the interview can still
// run. The returned closer releases the index handle.
func buildArchive(cfg *config.Config, logger *slog.Logger) (*archive.Archive, func()) {
	var index *archive.Index
	if cfg.Archive.DatabasePath != "" {
		opened, err := archive.OpenIndex(cfg.Archive.DatabasePath)
		if err != nil {
			logger.Warn("transcript index unavailable",
				"path", cfg.Archive.DatabasePath, "error", err)
		} else {
			index = opened
		}
	}

	var mirror *archive.Mirror
	if cfg.Archive.RedisURL != "" {
		connected, err := archive.NewMirror(cfg.Archive.RedisURL, logger)
		if err != nil {
			logger.Warn("transcript mirror unavailable", "error", err)
		} else {
			mirror = connected
		}
	}

	closer := func() {
		if index != nil {
			_ = index.Close()
		}
	}
	return archive.New(cfg.Archive.LogPath, index, mirror, logger), closer
}
