// Package spec defines the structured functional-specification record that
// interviews produce, plus the normalization and markdown rendering that turn
// raw model output into a publishable document.
package spec

// Placeholder text used when a section has no confirmed content yet.
const (
	PendingClarification = "Pending clarification."
	UntitledInitiative   = "Untitled Initiative"
)

// Process describes a named business process as an ordered happy path plus
// optional unhappy-path (exception) steps.
type Process struct {
	Name        string   `json:"name"`
	HappyPath   []string `json:"happy_path"`
	UnhappyPath []string `json:"unhappy_path"`
}

// Persona is a stakeholder or user role captured during the interview.
type Persona struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Requirement is a single functional requirement with its business rules or
// data dependencies.
type Requirement struct {
	Description   string `json:"description"`
	BusinessRules string `json:"business_rules"`
}

// Summary is the normalized structured specification. Every field is
// guaranteed non-empty after Normalize: sections the stakeholder never
// covered carry explicit placeholder text rather than absence.
type Summary struct {
	Title             string `json:"title"`
	ProjectOverview   string `json:"project_overview"`
	ProjectObjective  string `json:"project_objective"`
	ScopeOverview     string `json:"scope_overview"`
	ScopeInScope      string `json:"scope_in_scope"`
	ScopeOutOfScope   string `json:"scope_out_of_scope"`

	CurrentState     []string  `json:"current_state"`
	CurrentProcesses []Process `json:"current_processes"`
	FutureState      []string  `json:"future_state"`
	FutureProcesses  []Process `json:"future_processes"`

	Personas []Persona `json:"personas"`

	FunctionalOverview        string        `json:"functional_overview"`
	NonFunctionalRequirements []string      `json:"non_functional_requirements"`
	Assumptions               []string      `json:"assumptions"`
	Risks                     []string      `json:"risks"`
	OpenIssues                []string      `json:"open_issues"`
	FunctionalRequirements    []Requirement `json:"functional_requirements"`

	// Relative paths to rendered process diagrams, when diagram generation
	// is enabled. Empty slices mean no diagram links are emitted.
	CurrentProcessDiagrams []string `json:"current_process_diagram,omitempty"`
	FutureProcessDiagrams  []string `json:"future_process_diagram,omitempty"`
}
