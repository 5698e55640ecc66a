// Package export persists finished specifications as Markdown and PDF files.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thoreinstein.com/specforge/pkg/errors"
)

// Artifacts lists the files written for one specification.
type Artifacts struct {
	MarkdownPath string
	// PDFPath is empty when PDF rendering failed or was disabled.
	PDFPath string
}

// Exporter writes specification artifacts into a fixed output directory.
type Exporter struct {
	outputDir  string
	pdfEnabled bool
	logger     *slog.Logger

	// now is overridable so tests get stable filenames.
	now func() time.Time
}

// NewExporter creates an exporter rooted at outputDir.
func NewExporter(outputDir string, pdfEnabled bool, logger *slog.Logger) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.NewExportErrorWithCause("spec", outputDir,
			"unable to create output directory", err)
	}
	return &Exporter{
		outputDir:  outputDir,
		pdfEnabled: pdfEnabled,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Export writes the Markdown file and, when enabled, a PDF sibling. A PDF
// failure is logged and leaves Artifacts.PDFPath empty; only the Markdown
// write is fatal.
func (e *Exporter) Export(scope, specText string) (*Artifacts, error) {
	timestamp := e.now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("functional_spec_%s_%s.md", scope, timestamp)
	markdownPath := filepath.Join(e.outputDir, filename)

	if err := os.WriteFile(markdownPath, []byte(specText), 0o644); err != nil {
		return nil, errors.NewExportErrorWithCause("markdown", markdownPath,
			"unable to write specification markdown", err)
	}

	artifacts := &Artifacts{MarkdownPath: markdownPath}
	if !e.pdfEnabled {
		return artifacts, nil
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"
	if err := writePDF(pdfPath, specText); err != nil {
		if e.logger != nil {
			e.logger.Warn("specification PDF rendering failed", "path", pdfPath, "error", err)
		}
		return artifacts, nil
	}
	artifacts.PDFPath = pdfPath
	return artifacts, nil
}
