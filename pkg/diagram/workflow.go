package diagram

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"thoreinstein.com/specforge/pkg/errors"
)

// WorkflowArtifact describes the exported interview-workflow diagram.
type WorkflowArtifact struct {
	DOTPath   string
	ImagePath string
	DOTSource string
}

// workflowSteps is the stage chain of one interview run, in execution order.
var workflowSteps = []struct {
	id    string
	label string
}{
	{"kickoff", "Kickoff interview and establish context"},
	{"interview_loop", "Iterative questioning and transcript capture"},
	{"summarize", "Summarize conversation into structured spec"},
	{"as_is_confirmation", "Confirm AS-IS processes and bullet points"},
	{"future_state_confirmation", "Confirm TO-BE processes and outcomes"},
	{"process_diagrams", "Generate process diagrams"},
	{"review", "Run specification review agent"},
	{"persist_outputs", "Persist transcript, summary, and artifacts"},
	{"closing", "Deliver final specification and closing message"},
}

// InterviewWorkflowDOT returns a DOT digraph of the interview stage chain.
func InterviewWorkflowDOT() string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
	}

	line("digraph InterviewWorkflow {")
	line(`  graph [rankdir=TB, bgcolor=white, pad=0.5, nodesep=0.5, ranksep=0.7, fontname=Helvetica];`)
	line(`  node [fontname=Helvetica, fontsize=11, shape=rect, style="rounded,filled", fillcolor="#E8F5E9", color="#2E7D32", penwidth=1.2, width=3.4];`)
	line(`  edge [color="#2E7D32", penwidth=1.2, arrowsize=0.8];`)
	line(`  label="Business Analyst Interview Workflow"; labelloc="t"; fontsize=14;`)

	for _, step := range workflowSteps {
		line(fmt.Sprintf(`  "%s" [label="%s"];`, step.id, step.label))
	}
	for i := 1; i < len(workflowSteps); i++ {
		line(fmt.Sprintf(`  "%s" -> "%s";`, workflowSteps[i-1].id, workflowSteps[i].id))
	}
	line("}")
	return b.String()
}

// RenderWorkflow writes the interview-workflow diagram next to the process
// diagrams. Image rendering follows the same Graphviz-availability rules as
// RenderProcesses; without the binary only the DOT source is produced.
func (r *Renderer) RenderWorkflow() (*WorkflowArtifact, error) {
	source := InterviewWorkflowDOT()
	timestamp := time.Now().UTC().Format("20060102_150405")
	baseName := "interview_workflow_" + timestamp

	dotPath := filepath.Join(r.outputDir, baseName+".dot")
	if err := os.WriteFile(dotPath, []byte(source), 0o644); err != nil {
		return nil, errors.NewDiagramErrorWithCause("workflow",
			"unable to write workflow DOT source", err)
	}

	artifact := &WorkflowArtifact{DOTPath: dotPath, DOTSource: source}
	if r.format == FormatDOT {
		return artifact, nil
	}

	binary, err := r.lookPath(r.command)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("graphviz binary not found; workflow diagram kept as DOT only",
				"command", r.command)
		}
		return artifact, nil
	}

	imagePath := filepath.Join(r.outputDir, baseName+"."+string(r.format))
	if err := r.runDot(binary, "-T"+string(r.format), dotPath, "-o", imagePath); err != nil {
		return nil, errors.NewDiagramErrorWithCause("workflow",
			"graphviz rendering failed", err)
	}
	artifact.ImagePath = imagePath
	return artifact, nil
}
