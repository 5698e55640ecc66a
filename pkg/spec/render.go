package spec

import (
	"fmt"
	"strings"
)

// Render produces the functional-specification markdown document for a
// normalized summary. The section layout is fixed: eleven numbered sections
// ending in the FR table, with diagram links interleaved when present.
func (s *Summary) Render() string {
	title := strings.TrimSpace(s.Title)
	header := "## Functional Specification: " + title
	if strings.HasPrefix(strings.ToLower(title), "functional specification") {
		header = "## " + title
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line("%s", header)
	line("")
	line("**1. Project Overview & Objectives**")
	line("%s", s.ProjectOverview)
	line("")
	line("*   **Project Objective:** %s", s.ProjectObjective)
	line("")
	line("**2. Scope Boundaries:**")
	if s.ScopeOverview != "" {
		line("%s", s.ScopeOverview)
	}
	line("")
	line("*   **In-Scope:** %s", s.ScopeInScope)
	line("*   **Out-of-Scope:** %s", s.ScopeOutOfScope)
	line("")
	line("**3. Current State (As-Is)**")
	line("")
	for _, item := range s.CurrentState {
		line("*   %s", item)
	}
	renderProcessFlows(&b, "As-Is Process Flows", renderableProcesses(s.CurrentProcesses))
	for _, path := range s.CurrentProcessDiagrams {
		line("")
		line("![AS-IS Process Diagram](%s)", path)
	}
	line("")
	line("**4. Future State (To-Be)**")
	line("")
	for _, item := range s.FutureState {
		line("*   %s", item)
	}
	renderProcessFlows(&b, "Future Process Flows", PadFutureProcesses(s.FutureProcesses))
	for _, path := range s.FutureProcessDiagrams {
		line("")
		line("![TO-BE Process Diagram](%s)", path)
	}
	line("")
	line("**5. Stakeholders & Personas**")
	line("")
	for _, persona := range s.Personas {
		line("*   **%s:** %s", persona.Name, persona.Description)
	}
	line("")
	line("**6. Functional Requirements Overview**")
	line("%s", s.FunctionalOverview)
	line("")
	line("**7. Non-Functional Requirements**")
	line("")
	for _, item := range s.NonFunctionalRequirements {
		line("*   %s", item)
	}
	line("")
	line("**8. Assumptions**")
	line("")
	for _, item := range s.Assumptions {
		line("*   %s", item)
	}
	line("")
	line("**9. Risks**")
	line("")
	for _, item := range s.Risks {
		line("*   %s", item)
	}
	line("")
	line("**10. Open Issues**")
	line("")
	for _, item := range s.OpenIssues {
		line("*   %s", item)
	}
	line("")
	line("**11. Functional Requirements**")
	line("")
	line("### Functional Requirements")
	line("")
	line("| Spec ID | Specification Description | Business Rules/Data Dependency |")
	line("|---|---|---|")
	for index, requirement := range s.FunctionalRequirements {
		line("| FR-%d | %s | %s |",
			index+1,
			cleanTableCell(requirement.Description),
			cleanTableCell(requirement.BusinessRules))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// renderableProcesses drops entries that carry no steps at all; a bare name
// adds nothing to the document.
func renderableProcesses(processes []Process) []Process {
	var kept []Process
	for _, process := range processes {
		if len(process.HappyPath) == 0 && len(process.UnhappyPath) == 0 {
			continue
		}
		kept = append(kept, process)
	}
	return kept
}

func renderProcessFlows(b *strings.Builder, heading string, processes []Process) {
	if len(processes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n**%s**\n\n", heading)
	for _, process := range processes {
		fmt.Fprintf(b, "*   **%s:**\n", process.Name)
		if len(process.HappyPath) > 0 {
			fmt.Fprint(b, "    * Happy path:\n")
			for i, step := range process.HappyPath {
				fmt.Fprintf(b, "        * %d. %s\n", i+1, step)
			}
		}
		if len(process.UnhappyPath) > 0 {
			fmt.Fprint(b, "    * Unhappy path / exceptions:\n")
			for i, step := range process.UnhappyPath {
				fmt.Fprintf(b, "        * %d. %s\n", i+1, step)
			}
		}
	}
}

// cleanTableCell escapes content for a single markdown table cell.
func cleanTableCell(value string) string {
	sanitized := strings.ReplaceAll(value, "\r\n", "\n")
	sanitized = strings.ReplaceAll(sanitized, "\r", "\n")
	sanitized = strings.ReplaceAll(sanitized, "|", "\\|")
	sanitized = strings.ReplaceAll(sanitized, "\n", " <br> ")
	return strings.TrimSpace(sanitized)
}
