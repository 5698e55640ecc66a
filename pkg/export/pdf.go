package export

import (
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"thoreinstein.com/specforge/pkg/errors"
)

// writePDF renders the specification markdown into a simple typeset PDF:
// the document title, bold section headers, bullet lists, and table rows in
// a monospace face. Inline emphasis markers are stripped rather than styled.
func writePDF(path, specText string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, raw := range strings.Split(specText, "\n") {
		line := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "## "):
			pdf.SetFont("Helvetica", "B", 16)
			pdf.MultiCell(0, 8, tr(strings.TrimPrefix(trimmed, "## ")), "", "L", false)
			pdf.Ln(2)
		case isSectionHeader(trimmed):
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 7, tr(stripInline(trimmed)), "", "L", false)
		case strings.HasPrefix(trimmed, "|"):
			pdf.SetFont("Courier", "", 8)
			pdf.MultiCell(0, 4.5, tr(trimmed), "", "L", false)
		case strings.HasPrefix(trimmed, "!["):
			// Diagram links reference external image files; keep the path.
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 5, tr("[diagram: "+imageTarget(trimmed)+"]"), "", "L", false)
		case strings.HasPrefix(trimmed, "*   ") || strings.HasPrefix(trimmed, "* "):
			pdf.SetFont("Helvetica", "", 10)
			indent := float64(strings.Index(line, "*")) / 2
			pdf.SetX(pdf.GetX() + indent)
			pdf.MultiCell(0, 5.5, tr("- "+stripInline(bulletText(trimmed))), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5.5, tr(stripInline(trimmed)), "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.NewExportErrorWithCause("pdf", path, "unable to write PDF", err)
	}
	return nil
}

// isSectionHeader matches the rendered "**N. Title**" section markers.
func isSectionHeader(line string) bool {
	if !strings.HasPrefix(line, "**") || !strings.HasSuffix(line, "**") {
		return false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "**"), "**")
	return len(inner) > 2 && inner[0] >= '0' && inner[0] <= '9' && strings.Contains(inner, ".")
}

func bulletText(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "*   "), "* "))
}

func stripInline(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

func imageTarget(line string) string {
	start := strings.Index(line, "](")
	end := strings.LastIndex(line, ")")
	if start == -1 || end <= start {
		return line
	}
	return line[start+2 : end]
}
