package spec

import (
	"fmt"
	"strings"
)

// Fallback step injected into future processes that arrive with a name but no
// steps; current-state processes with no steps keep empty paths instead.
const futureStepsPendingDefinition = "Future-state steps pending definition."

// Parse extracts and normalizes a structured summary from raw model output.
// Returns nil when the output contains no parseable JSON object.
func Parse(raw string) *Summary {
	payload := ExtractJSONObject(raw)
	if payload == nil {
		return nil
	}
	return Normalize(payload)
}

// Normalize converts a decoded JSON payload into a total Summary: every
// scalar section is non-empty and every list section has at least one entry,
// with placeholder text standing in for anything missing or malformed.
func Normalize(payload map[string]any) *Summary {
	s := &Summary{
		Title:            cleanStringOr(payload["title"], UntitledInitiative),
		ProjectOverview:  cleanStringOr(payload["project_overview"], PendingClarification),
		ProjectObjective: cleanStringOr(payload["project_objective"], PendingClarification),
	}

	if scope, ok := payload["scope"].(map[string]any); ok {
		s.ScopeOverview = cleanString(scope["overview"])
		s.ScopeInScope = cleanString(scope["in_scope"])
		s.ScopeOutOfScope = cleanString(scope["out_of_scope"])
	}
	if s.ScopeInScope == "" {
		s.ScopeInScope = PendingClarification
	}
	if s.ScopeOutOfScope == "" {
		s.ScopeOutOfScope = PendingClarification
	}

	s.CurrentState = sanitizeStringList(payload["current_state"], PendingClarification)
	s.CurrentProcesses = normalizeProcesses(payload["current_processes"], "Process detail pending clarification.")
	s.FutureState = sanitizeStringList(payload["future_state"], PendingClarification)
	s.FutureProcesses = normalizeProcesses(payload["future_processes"], "Future process detail pending clarification.")

	s.Personas = normalizePersonas(payload["personas"])

	s.FunctionalOverview = cleanStringOr(payload["functional_overview"], PendingClarification)
	s.NonFunctionalRequirements = sanitizeStringList(payload["non_functional_requirements"], PendingClarification)
	s.Assumptions = sanitizeStringList(payload["assumptions"], PendingClarification)
	s.Risks = sanitizeStringList(payload["risks"], PendingClarification)
	s.OpenIssues = sanitizeStringList(payload["open_issues"], PendingClarification)
	s.FunctionalRequirements = normalizeRequirements(payload["functional_requirements"])

	s.CurrentProcessDiagrams = CoerceDiagramPaths(payload["current_process_diagram"])
	s.FutureProcessDiagrams = CoerceDiagramPaths(payload["future_process_diagram"])

	return s
}

// cleanString coerces an arbitrary JSON value to a trimmed string. Non-string
// scalars are formatted; nil becomes empty.
func cleanString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func cleanStringOr(value any, fallback string) string {
	if text := cleanString(value); text != "" {
		return text
	}
	return fallback
}

// sanitizeStringList accepts either a list or a bare string and returns a
// list of trimmed non-empty entries, falling back to the default when nothing
// survives.
func sanitizeStringList(value any, fallback string) []string {
	var items []string
	switch v := value.(type) {
	case []any:
		for _, element := range v {
			if text := cleanString(element); text != "" {
				items = append(items, text)
			}
		}
	case string:
		if text := strings.TrimSpace(v); text != "" {
			items = append(items, text)
		}
	}
	if len(items) == 0 {
		items = []string{fallback}
	}
	return items
}

// SanitizeProcessSteps coerces a raw steps value into clean step strings.
// Lists keep one step per entry with pipes and newlines replaced; a bare
// string is split on semicolons.
func SanitizeProcessSteps(raw any) []string {
	var steps []string
	switch v := raw.(type) {
	case []any:
		for _, entry := range v {
			text := cleanString(entry)
			if text == "" {
				continue
			}
			text = strings.ReplaceAll(text, "|", "/")
			text = strings.ReplaceAll(text, "\n", " ")
			steps = append(steps, text)
		}
	case string:
		for _, segment := range strings.Split(v, ";") {
			segment = strings.TrimSpace(segment)
			if segment != "" {
				steps = append(steps, strings.ReplaceAll(segment, "|", "/"))
			}
		}
	}
	return steps
}

// normalizeProcesses keeps entries that carry a name or at least one step.
// Nameless entries with steps get the placeholder name; malformed entries are
// dropped.
func normalizeProcesses(value any, placeholderName string) []Process {
	entries, ok := value.([]any)
	if !ok {
		return nil
	}
	var processes []Process
	for _, entry := range entries {
		dict, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := cleanString(dict["name"])
		happy := SanitizeProcessSteps(dict["happy_path"])
		unhappy := SanitizeProcessSteps(dict["unhappy_path"])
		if name == "" && len(happy) == 0 && len(unhappy) == 0 {
			continue
		}
		if name == "" {
			name = placeholderName
		}
		processes = append(processes, Process{
			Name:        name,
			HappyPath:   happy,
			UnhappyPath: unhappy,
		})
	}
	return processes
}

// CoerceProcesses converts already-normalized process maps (or a Summary's
// typed slice re-decoded from JSON) into Process values, sanitizing names and
// steps. A non-empty fallbackStep is injected as the sole happy-path step for
// named entries that carry no steps at all; with an empty fallbackStep those
// entries are dropped.
func CoerceProcesses(value any, fallbackStep string) []Process {
	entries, ok := value.([]any)
	if !ok {
		return nil
	}
	var processes []Process
	for _, entry := range entries {
		dict, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := cleanString(dict["name"])
		if name == "" {
			continue
		}
		happy := SanitizeProcessSteps(dict["happy_path"])
		unhappy := SanitizeProcessSteps(dict["unhappy_path"])
		if len(happy) == 0 && len(unhappy) == 0 {
			if fallbackStep == "" {
				continue
			}
			happy = []string{fallbackStep}
		}
		processes = append(processes, Process{
			Name:        strings.ReplaceAll(name, "|", "/"),
			HappyPath:   happy,
			UnhappyPath: unhappy,
		})
	}
	return processes
}

// PadFutureProcesses applies the future-state fallback step to named
// processes that have no steps yet.
func PadFutureProcesses(processes []Process) []Process {
	padded := make([]Process, 0, len(processes))
	for _, process := range processes {
		if len(process.HappyPath) == 0 && len(process.UnhappyPath) == 0 {
			process.HappyPath = []string{futureStepsPendingDefinition}
		}
		padded = append(padded, process)
	}
	return padded
}

func normalizePersonas(value any) []Persona {
	var personas []Persona
	if entries, ok := value.([]any); ok {
		for _, entry := range entries {
			dict, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			personas = append(personas, Persona{
				Name:        cleanStringOr(dict["name"], "Stakeholder"),
				Description: cleanStringOr(dict["description"], PendingClarification),
			})
		}
	}
	if len(personas) == 0 {
		personas = []Persona{{Name: "Stakeholder", Description: PendingClarification}}
	}
	return personas
}

// normalizeRequirements accepts dict entries or bare strings. Entries without
// a description are dropped; missing business rules get directive placeholder
// text so the table never renders an empty cell.
func normalizeRequirements(value any) []Requirement {
	var requirements []Requirement
	if entries, ok := value.([]any); ok {
		for _, entry := range entries {
			var description, rules string
			if dict, ok := entry.(map[string]any); ok {
				description = cleanString(dict["description"])
				rules = cleanString(dict["business_rules"])
			} else {
				description = cleanString(entry)
			}
			if description == "" {
				continue
			}
			if rules == "" {
				rules = "Define validation steps and data dependencies."
			}
			requirements = append(requirements, Requirement{
				Description:   description,
				BusinessRules: rules,
			})
		}
	}
	if len(requirements) == 0 {
		requirements = []Requirement{{
			Description:   "Functional requirement pending clarification.",
			BusinessRules: "Detail validation expectations and data dependencies once confirmed.",
		}}
	}
	return requirements
}

// CoerceDiagramPaths accepts a single path or a list of paths and returns the
// trimmed non-empty ones.
func CoerceDiagramPaths(value any) []string {
	switch v := value.(type) {
	case string:
		if path := strings.TrimSpace(v); path != "" {
			return []string{path}
		}
	case []any:
		var paths []string
		for _, entry := range v {
			if text, ok := entry.(string); ok {
				if path := strings.TrimSpace(text); path != "" {
					paths = append(paths, path)
				}
			}
		}
		return paths
	case []string:
		var paths []string
		for _, entry := range v {
			if path := strings.TrimSpace(entry); path != "" {
				paths = append(paths, path)
			}
		}
		return paths
	}
	return nil
}
