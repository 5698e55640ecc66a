package interview

import "strings"

// Termination phrases a stakeholder can type to end the questioning phase.
var terminationTokens = map[string]struct{}{
	"done":                 {},
	"no further questions": {},
	"[end]":                {},
}

// IsTerminationSignal reports whether a stakeholder reply ends the Q&A phase.
func IsTerminationSignal(answer string) bool {
	_, ok := terminationTokens[strings.ToLower(strings.TrimSpace(answer))]
	return ok
}

// ClosingPrompt is the final question asked once a reviewed draft exists.
const ClosingPrompt = "Before we wrap up, is there anything you'd like to add or change in the specification?"

// Confirmation questions shown alongside AS-IS / TO-BE proposals.
const (
	AsIsReviewPrompt = "Do these bullet points capture the current AS-IS state accurately? " +
		"Please add, edit, or approve them so we document today's reality correctly."
	ToBeReviewPrompt = "Do these bullet points reflect the desired TO-BE experience? Please " +
		"add, edit, or approve them so we capture the future-state vision correctly."
)

// negativeFeedbackResponses are closing replies that mean "no changes".
// Termination tokens count as negative feedback too.
var negativeFeedbackResponses = map[string]struct{}{
	"":             {},
	"no":           {},
	"nope":         {},
	"nah":          {},
	"nothing":      {},
	"none":         {},
	"no thanks":    {},
	"no thank you": {},
	"no changes":   {},
	"no change":    {},
	"no additions": {},
	"nothing else": {},
	"all good":     {},
	"we are good":  {},
	"we're good":   {},
	"we good":      {},
	"looks good":   {},
	"looks great":  {},
	"looks fine":   {},
	"good to go":   {},
	"that is all":  {},
	"that's all":   {},
	"approve":      {},
	"approved":     {},
}

// WantsClosingUpdate reports whether the stakeholder's closing reply asks for
// another revision pass rather than approving the draft as-is.
func WantsClosingUpdate(response string) bool {
	normalized := strings.TrimRight(strings.ToLower(strings.TrimSpace(response)), ".! ")
	if _, ok := negativeFeedbackResponses[normalized]; ok {
		return false
	}
	if _, ok := terminationTokens[normalized]; ok {
		return false
	}
	return true
}

// System guidance prepended to every interviewer LLM call.
const (
	guidanceSystem = "You orchestrate a structured requirements interview. Maintain a " +
		"professional Business Analyst persona, summarize frequently, and " +
		"capture actionable requirements."
	guidanceInterviewer = "Stay focused on eliciting requirements. Ask concise, empathetic " +
		"questions. Confirm understanding before moving on."
)

// SystemGuidance is the combined system prompt for interviewer calls.
func SystemGuidance() string {
	return guidanceSystem + "\n\n" + guidanceInterviewer
}

const structuredSummaryInstruction = `Respond ONLY with valid JSON matching the schema below. Populate every field even if the information is incomplete - use short placeholder text such as 'Pending clarification' rather than leaving a value empty. Do not wrap the JSON in markdown fences or include commentary.
{
  "title": string,
  "project_overview": string,
  "project_objective": string,
  "scope": {
    "overview": string,
    "in_scope": string,
    "out_of_scope": string
  },
  "current_state": [string],
  "current_processes": [
    {"name": string, "happy_path": [string], "unhappy_path": [string]}
  ],
  "future_state": [string],
  "future_processes": [
    {"name": string, "happy_path": [string], "unhappy_path": [string]}
  ],
  "personas": [
    {"name": string, "description": string}
  ],
  "functional_overview": string,
  "non_functional_requirements": [string],
  "assumptions": [string],
  "risks": [string],
  "open_issues": [string],
  "functional_requirements": [
    {"description": string, "business_rules": string}
  ]
}
Guidance: ensure scope.overview concisely summarizes the initiative, and the scope.in_scope / scope.out_of_scope values are bullet-ready sentences. Describe the current_state with at least three concise bullets covering the existing process, systems, or pain points. Capture the future_state with 3-6 action-oriented bullet statements that outline the envisioned improvements, capabilities, or outcomes. Include current_processes entries that list each process name with 3-6 happy-path steps and key unhappy-path exceptions when available. Include future_processes entries that document the target process design with clear happy-path steps and important exceptions. Provide at least three personas when available, a minimum of three non_functional_requirements entries, and at least five functional_requirements. Each functional requirement should reference key systems, data dependencies, and validation expectations.`

// PromptPack holds the interview prompt templates bound to one scope.
type PromptPack struct {
	Kickoff       string
	FollowUp      string
	Summarization string
}

var promptLibrary = map[string]PromptPack{
	"project": {
		Kickoff: "You are a senior Business Analyst. Start a discovery interview to " +
			"understand the project scope. Clarify objectives, business drivers, " +
			"stakeholders, success metrics, timeline expectations, and risks. " +
			"Ask one question at a time, observe the user's responses, and adapt " +
			"your wording to stay conversational and professional.",
		FollowUp: "Given the conversation so far, craft the next probing question that " +
			"uncovers missing details about requirements, constraints, budget, " +
			"dependencies, or acceptance criteria. Reference prior answers when " +
			"appropriate to show active listening.",
		Summarization: "Summarize the collected information into a structured functional " +
			"specification for a project. Highlight scope boundaries, objectives, " +
			"personas/stakeholders, functional requirements, assumptions, risks, " +
			"and open issues.\n" + structuredSummaryInstruction,
	},
	"process": {
		Kickoff: "You are interviewing a process owner to map and improve an existing " +
			"process. Begin by clarifying the process goals, triggers, inputs, " +
			"outputs, stakeholders, key steps, pain points, and compliance needs. " +
			"Be warm yet concise.",
		FollowUp: "Propose the next insightful question that helps document the current " +
			"process, exceptions, systems involved, hand-offs, metrics, and " +
			"improvement opportunities. Reference what you have already learned.",
		Summarization: "Create a functional specification for a process initiative. Include " +
			"context, goals, scope, process overview, detailed requirements, " +
			"supporting systems, metrics, risks, and recommended improvements.\n" +
			structuredSummaryInstruction,
	},
	"change_request": {
		Kickoff: "Act as a Business Analyst qualifying a change request. Begin by " +
			"confirming the requestor, business justification, impacted systems, " +
			"desired outcomes, urgency, and constraints. Maintain a consultative tone.",
		FollowUp: "Formulate the next diagnostic question to capture affected user " +
			"journeys, process updates, data impacts, dependencies, testing needs, " +
			"rollout considerations, and success indicators.",
		Summarization: "Summarize the change request details as a functional specification. " +
			"Cover current state, requested change, rationale, scope, impacted " +
			"personas, requirements, technical considerations, risks, metrics, " +
			"validation steps, and outstanding questions.\n" + structuredSummaryInstruction,
	},
}

// PromptPackFor returns the prompt pack for a normalized scope, falling back
// to the project pack for unknown scopes.
func PromptPackFor(scope string) PromptPack {
	if pack, ok := promptLibrary[scope]; ok {
		return pack
	}
	return promptLibrary["project"]
}
