// Package diagram renders BPMN-styled process-flow diagrams with Graphviz.
package diagram

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/spec"
)

// Format is a Graphviz output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	// FormatDOT skips image rendering and keeps the DOT source only.
	FormatDOT Format = "dot"
)

var supportedFormats = map[Format]struct{}{
	FormatSVG: {},
	FormatPNG: {},
	FormatPDF: {},
	FormatDOT: {},
}

// Artifact describes one rendered process diagram.
type Artifact struct {
	ProcessName  string
	DOTPath      string
	ImagePath    string
	RelativePath string
	DOTSource    string
}

// Renderer writes DOT files and shells out to the Graphviz `dot` binary.
// A missing binary disables image output rather than failing the interview.
type Renderer struct {
	outputDir string
	format    Format
	command   string
	logger    *slog.Logger

	// Overridable for tests.
	lookPath func(string) (string, error)
	runDot   func(binary string, args ...string) error
}

// SetCommand overrides the Graphviz command resolved on PATH. The default
// is "dot".
func (r *Renderer) SetCommand(command string) {
	if strings.TrimSpace(command) != "" {
		r.command = command
	}
}

// NewRenderer creates a renderer targeting outputDir.
func NewRenderer(outputDir string, format Format, logger *slog.Logger) (*Renderer, error) {
	if _, ok := supportedFormats[format]; !ok {
		return nil, errors.NewDiagramError(string(format),
			fmt.Sprintf("unsupported image format %q", format))
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.NewDiagramErrorWithCause(string(format),
			"unable to create diagram output directory", err)
	}
	return &Renderer{
		outputDir: outputDir,
		format:    format,
		command:   "dot",
		logger:    logger,
		lookPath:  exec.LookPath,
		runDot: func(binary string, args ...string) error {
			out, err := exec.Command(binary, args...).CombinedOutput()
			if err != nil {
				return errors.Newf("dot failed: %s", strings.TrimSpace(string(out)))
			}
			return nil
		},
	}, nil
}

// RenderProcesses renders one diagram per process and returns paths relative
// to the output directory, in process order. When the Graphviz binary is not
// installed the result is empty with no error.
func (r *Renderer) RenderProcesses(processes []spec.Process, groupPrefix, contextLabel string) ([]string, error) {
	if len(processes) == 0 {
		return nil, nil
	}

	dotBinary := ""
	if r.format != FormatDOT {
		binary, err := r.lookPath(r.command)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("graphviz binary not found; skipping process diagrams",
					"command", r.command)
			}
			return nil, nil
		}
		dotBinary = binary
	}

	timestamp := time.Now().UTC().Format("20060102_150405")
	paths := make([]string, 0, len(processes))
	for _, process := range processes {
		artifact, err := r.renderSingle(process, groupPrefix, contextLabel, timestamp, dotBinary)
		if err != nil {
			return nil, err
		}
		paths = append(paths, artifact.RelativePath)
	}
	return paths, nil
}

func (r *Renderer) renderSingle(process spec.Process, groupPrefix, contextLabel, timestamp, dotBinary string) (*Artifact, error) {
	happy := normalizeSteps(process.HappyPath, "Primary path pending confirmation.", false)
	unhappy := normalizeSteps(process.UnhappyPath, "", true)

	source := BuildProcessDOT(process.Name, contextLabel, happy, unhappy)

	group := slugify(groupPrefix)
	if group == "" {
		group = "process"
	}
	baseName := fmt.Sprintf("%s_%s_%s", group, slugify(process.Name), timestamp)
	dotPath := filepath.Join(r.outputDir, baseName+".dot")
	if err := os.WriteFile(dotPath, []byte(source), 0o644); err != nil {
		return nil, errors.NewDiagramErrorWithCause(process.Name,
			"unable to write DOT source", err)
	}

	imagePath := dotPath
	if r.format != FormatDOT {
		imagePath = filepath.Join(r.outputDir, baseName+"."+string(r.format))
		if err := r.runDot(dotBinary, "-T"+string(r.format), dotPath, "-o", imagePath); err != nil {
			return nil, errors.NewDiagramErrorWithCause(process.Name,
				"graphviz rendering failed", err)
		}
	}

	if r.logger != nil {
		r.logger.Debug("rendered process diagram", "process", process.Name, "path", imagePath)
	}
	return &Artifact{
		ProcessName:  process.Name,
		DOTPath:      dotPath,
		ImagePath:    imagePath,
		RelativePath: filepath.Base(imagePath),
		DOTSource:    source,
	}, nil
}

// BuildProcessDOT produces a DOT digraph focused on one process: a start and
// end event, a happy-path lane, and an optional exception lane.
func BuildProcessDOT(processName, contextLabel string, happySteps, unhappySteps []string) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
	}

	line("digraph ProcessDiagram {")
	line(`  graph [rankdir=TB, bgcolor=white, pad=0.6, nodesep=0.6, ranksep=0.95, fontname=Helvetica, splines=ortho];`)
	line(`  node [fontname=Helvetica, fontsize=11, shape=rect, style="rounded,filled", fillcolor="#E3F2FD", color="#1565C0", penwidth=1.2, width=3.0];`)
	line(`  edge [color="#1565C0", penwidth=1.2, arrowsize=0.8];`)
	line(`  "node_start" [shape=circle, width=0.70, height=0.70, style=filled, fillcolor="#C8E6C9", color="#2E7D32", label="Start"];`)
	line(`  "node_end" [shape=circle, peripheries=2, width=0.70, height=0.70, style=filled, fillcolor="#FFCDD2", color="#C62828", label="End"];`)

	type lane struct {
		label  string
		prefix string
		steps  []string
	}
	var lanes []lane
	if len(happySteps) > 0 {
		lanes = append(lanes, lane{"Happy Path", "happy", happySteps})
	}
	if len(unhappySteps) > 0 {
		lanes = append(lanes, lane{"Exception Path", "unhappy", unhappySteps})
	}

	var terminalNodes []string
	for _, l := range lanes {
		line(fmt.Sprintf("  subgraph cluster_%s {", l.prefix))
		line("    style=rounded;")
		line(`    color="#B0BEC5";`)
		line(fmt.Sprintf(`    fontname=Helvetica; fontsize=12; labelloc="t"; labeljust="l"; label="%s";`, l.label))

		previous := ""
		for i, step := range l.steps {
			nodeID := fmt.Sprintf("node_%s_%d", l.prefix, i+1)
			line(fmt.Sprintf(`    "%s" [label=<%s>];`, nodeID, taskLabel(l.label, i+1, step)))
			if previous == "" {
				line(fmt.Sprintf(`  "node_start" -> "%s";`, nodeID))
			} else {
				line(fmt.Sprintf(`  "%s" -> "%s";`, previous, nodeID))
			}
			previous = nodeID
		}
		if previous != "" {
			terminalNodes = append(terminalNodes, previous)
		}
		line("  }")
	}

	if len(lanes) == 0 {
		label := contextLabel
		if label == "" {
			label = processName
		}
		line(fmt.Sprintf(`  "node_placeholder_1" [label=<%s>];`,
			taskLabel("Process", 1, "Awaiting confirmation: "+shorten(label, 72))))
		line(`  "node_start" -> "node_placeholder_1";`)
		terminalNodes = append(terminalNodes, "node_placeholder_1")
	}

	for _, node := range terminalNodes {
		line(fmt.Sprintf(`  "%s" -> "node_end";`, node))
	}

	title := processName
	if contextLabel != "" {
		title = processName + " - " + contextLabel
	}
	line(fmt.Sprintf(`  "diagram_title" [shape=plaintext, label=<%s>, fontname=Helvetica, fontsize=13];`,
		taskLabel("Process", 0, shorten(title, 72))))
	line(`  "diagram_title" -> "node_start" [style=invis, weight=2];`)
	line(`  "node_start" -> "node_end" [style=invis, weight=0];`)
	line("}")
	return b.String()
}

func taskLabel(laneLabel string, index int, text string) string {
	header := laneLabel
	if index > 0 {
		header = fmt.Sprintf("%s #%d", laneLabel, index)
	}
	body := strings.TrimSpace(text)
	if body == "" {
		body = "(unspecified)"
	}
	return fmt.Sprintf(
		`<TABLE BORDER="0" CELLBORDER="0" CELLPADDING="6">`+
			`<TR><TD ALIGN="left"><B>%s</B></TD></TR>`+
			`<TR><TD ALIGN="left">%s</TD></TR></TABLE>`,
		html.EscapeString(header), html.EscapeString(body))
}

func normalizeSteps(steps []string, placeholder string, allowEmpty bool) []string {
	var normalized []string
	for _, step := range steps {
		cleaned := strings.ReplaceAll(strings.TrimSpace(step), "\n", " ")
		cleaned = strings.ReplaceAll(cleaned, `"`, "'")
		if cleaned != "" {
			normalized = append(normalized, cleaned)
		}
	}
	if len(normalized) == 0 && !allowEmpty {
		normalized = []string{placeholder}
	}
	return normalized
}

func shorten(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= width {
		return text
	}
	cut := text[:width-3]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func slugify(text string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
