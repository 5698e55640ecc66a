package interview

import "strings"

// Subject is one fixed topic area the interview must address before
// summarization.
type Subject struct {
	Name  string
	Focus string
}

// subjectPlan defines the interview sequence. The order is fixed; sessions
// track per-subject progress separately so this slice stays immutable.
var subjectPlan = []Subject{
	{
		Name: "Product Overview",
		Focus: "Clarify the product vision, target users, primary goals, " +
			"timeline expectations, and differentiators.",
	},
	{
		Name: "KPI & Success Metrics",
		Focus: "Identify measurable outcomes, target KPIs, success criteria, " +
			"and how progress will be tracked.",
	},
	{
		Name: "AS IS",
		Focus: "Document the current state, existing processes, manual " +
			"workarounds, and pain points.",
	},
	{
		Name: "Scope In and Out",
		Focus: "Capture what capabilities are required, what is explicitly " +
			"excluded, and priority boundaries.",
	},
	{
		Name: "Non-Functional Requirements",
		Focus: "Gather expectations for performance, security, compliance, " +
			"availability, scalability, and reliability.",
	},
	{
		Name: "User Roles & Personas",
		Focus: "Understand the personas, their responsibilities, goals, and " +
			"access needs.",
	},
	{
		Name: "Integrations & External Systems",
		Focus: "Determine required integrations, data exchanges, and system " +
			"dependencies.",
	},
	{
		Name: "Constraints & Assumptions",
		Focus: "Surface budget, timeline, regulatory, technical, and business " +
			"constraints along with key assumptions.",
	},
	{
		Name: "Dependencies & Risks",
		Focus: "Identify upstream or downstream dependencies, risks, and " +
			"mitigation considerations.",
	},
}

// SubjectPlan returns a copy of the fixed interview subject sequence.
func SubjectPlan() []Subject {
	return append([]Subject(nil), subjectPlan...)
}

// SubjectNames returns the plan's subject names in order.
func SubjectNames() []string {
	names := make([]string, len(subjectPlan))
	for i, subject := range subjectPlan {
		names[i] = subject.Name
	}
	return names
}

// NormalizeSubjectName maps a case-insensitive subject reference onto the
// canonical plan name, passing unknown names through unchanged.
func NormalizeSubjectName(name string) string {
	if name == "" {
		return ""
	}
	lookup := strings.ToLower(strings.TrimSpace(name))
	for _, subject := range subjectPlan {
		if strings.ToLower(subject.Name) == lookup {
			return subject.Name
		}
	}
	return name
}

// Planner tracks per-subject interview progress: how many questions each
// subject has received and which subjects are exhausted. Completion is
// monotonic and the current index only moves forward.
type Planner struct {
	maxQuestions int
	counts       []int
	completed    []bool
	current      int
}

// NewPlanner creates a planner with the given per-subject question cap.
// The cap must be at least 1; config validation enforces this upstream.
func NewPlanner(maxQuestions int) *Planner {
	if maxQuestions < 1 {
		maxQuestions = 1
	}
	return &Planner{
		maxQuestions: maxQuestions,
		counts:       make([]int, len(subjectPlan)),
		completed:    make([]bool, len(subjectPlan)),
	}
}

// NextSubjectToAsk returns the index of the subject that should receive the
// next question, force-completing subjects whose budget is exhausted along
// the way. The second return is false when the plan is finished and the
// interview is ready for summarization. Repeated calls without a recorded
// question return the same subject.
func (p *Planner) NextSubjectToAsk() (int, bool) {
	for {
		if p.current >= len(subjectPlan) {
			return 0, false
		}
		if p.completed[p.current] {
			p.advance()
			continue
		}
		if p.counts[p.current] >= p.maxQuestions {
			p.MarkComplete(p.current)
			continue
		}
		return p.current, true
	}
}

// Subject returns the plan entry at index.
func (p *Planner) Subject(index int) Subject {
	return subjectPlan[index]
}

// QuestionsAsked returns how many questions the subject has received.
func (p *Planner) QuestionsAsked(index int) int {
	return p.counts[index]
}

// RemainingBudget returns how many more questions the subject may receive.
func (p *Planner) RemainingBudget(index int) int {
	remaining := p.maxQuestions - p.counts[index]
	if remaining < 0 {
		return 0
	}
	return remaining
}

// MaxQuestions returns the per-subject question cap.
func (p *Planner) MaxQuestions() int {
	return p.maxQuestions
}

// RecordAsked increments the question counter for a subject.
func (p *Planner) RecordAsked(index int) {
	if index >= 0 && index < len(p.counts) {
		p.counts[index]++
	}
}

// MarkComplete marks a subject as exhausted and moves on when it was current.
func (p *Planner) MarkComplete(index int) {
	if index < 0 || index >= len(subjectPlan) {
		return
	}
	p.completed[index] = true
	if index == p.current {
		p.advance()
	}
}

// HandlePostAnswer force-completes the subject once its budget is used up.
// Called after the stakeholder answers a question for that subject.
func (p *Planner) HandlePostAnswer(index int) {
	if index < 0 || index >= len(p.counts) {
		return
	}
	if p.counts[index] >= p.maxQuestions {
		p.MarkComplete(index)
	}
}

// Completed reports whether a subject is exhausted.
func (p *Planner) Completed(index int) bool {
	return p.completed[index]
}

func (p *Planner) advance() {
	next := p.current + 1
	for next < len(subjectPlan) && p.completed[next] {
		next++
	}
	p.current = next
}
