// Package interview implements the discovery-interview engine: subject-plan
// tracking, question generation, structured-summary extraction, stakeholder
// confirmation with memoization, and the review convergence loop.
package interview

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/derive"
	forgeerrors "thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/review"
	"thoreinstein.com/specforge/pkg/spec"
)

const summaryMaxAttempts = 3

// Used to seed state-derivation prompts with recent conversation context.
const (
	excerptMaxTurns = 6
	excerptMaxChars = 1500
)

// DiagramRenderer renders process flows to image artifacts. Optional; when
// absent, diagram links are simply omitted from the document.
type DiagramRenderer interface {
	RenderProcesses(processes []spec.Process, groupPrefix, contextLabel string) ([]string, error)
}

// Agent coordinates one interview session: it owns the transcript, subject
// progress, confirmation state, and the latest specification draft.
type Agent struct {
	provider ai.Provider
	scope    string
	pack     PromptPack
	logger   *slog.Logger

	transcript *Transcript
	planner    *Planner

	// Index of the subject whose question is awaiting RecordQuestion, and
	// the subject whose answer is pending, respectively.
	pendingSubject int
	activeSubject  int

	corrections []string

	asIs *ConfirmationMemoizer
	toBe *ConfirmationMemoizer

	diagrams DiagramRenderer

	latestSummary  *spec.Summary
	latestMarkdown string
	hasMarkdown    bool
}

// Option configures optional Agent collaborators.
type Option func(*Agent)

// WithDiagramRenderer wires a process-diagram renderer into finalization.
func WithDiagramRenderer(renderer DiagramRenderer) Option {
	return func(a *Agent) { a.diagrams = renderer }
}

// WithConfirmationCollaborators overrides the confirmation collaborators,
// e.g. to swap the console reviewer for a simulated stakeholder.
func WithConfirmationCollaborators(asIs, toBe derive.Collaborator) Option {
	return func(a *Agent) {
		a.asIs.collaborator = asIs
		a.toBe.collaborator = toBe
	}
}

// NewAgent creates an interview agent for one session.
func NewAgent(provider ai.Provider, scope string, subjectMaxQuestions int, logger *slog.Logger, opts ...Option) *Agent {
	agent := &Agent{
		provider:       provider,
		scope:          scope,
		pack:           PromptPackFor(scope),
		logger:         logger,
		transcript:     NewTranscript(scope),
		planner:        NewPlanner(subjectMaxQuestions),
		pendingSubject: -1,
		activeSubject:  -1,
	}
	agent.asIs = NewConfirmationMemoizer(
		derive.KindAsIs,
		derive.NewAgent(provider, scope, derive.KindAsIs, logger),
		derive.NewConsoleCollaborator(),
		logger,
	)
	agent.toBe = NewConfirmationMemoizer(
		derive.KindToBe,
		derive.NewAgent(provider, scope, derive.KindToBe, logger),
		derive.NewConsoleCollaborator(),
		logger,
	)
	for _, opt := range opts {
		opt(agent)
	}
	return agent
}

// Scope returns the engagement scope the session was created with.
func (a *Agent) Scope() string { return a.scope }

// Transcript exposes the session transcript for archival.
func (a *Agent) Transcript() *Transcript { return a.transcript }

// Kickoff generates the first interview question.
func (a *Agent) Kickoff(ctx context.Context) (string, error) {
	a.transcript.InitialUserPrompt = a.pack.Kickoff
	question, err := a.generateNextQuestion(ctx)
	if err != nil {
		return "", err
	}
	if question == "" {
		return "", forgeerrors.NewInterviewError("kickoff", "unable to generate kickoff question")
	}
	return question, nil
}

// NextQuestion records the stakeholder's latest answer and asks the model for
// the next probing question. An empty question with nil error means the
// subject plan is exhausted and the interview is ready for summarization.
func (a *Agent) NextQuestion(ctx context.Context, latestAnswer string) (string, error) {
	if len(a.transcript.Turns) == 0 {
		return "", forgeerrors.NewInterviewError("questioning", "kickoff must run before follow-up questions")
	}
	a.transcript.Turns[len(a.transcript.Turns)-1].Answer = latestAnswer
	if a.activeSubject >= 0 {
		a.planner.HandlePostAnswer(a.activeSubject)
		a.activeSubject = -1
	}
	return a.generateNextQuestion(ctx)
}

// RecordQuestion appends a freshly generated question to the transcript with
// an empty answer, tagged with the subject it was generated for.
func (a *Agent) RecordQuestion(question string) {
	a.RecordQuestionWithAnswer(question, "")
}

// RecordQuestionWithAnswer appends a complete turn, used for exchanges that
// resolve immediately such as the closing-feedback round.
func (a *Agent) RecordQuestionWithAnswer(question, answer string) {
	subjectName := ""
	if a.pendingSubject >= 0 {
		subjectName = a.planner.Subject(a.pendingSubject).Name
	}
	a.transcript.Append(question, answer, subjectName)
	a.pendingSubject = -1
}

// RecordManualFollowUp appends a reviewer-driven follow-up exchange to the
// transcript, tagged with the canonical subject name when one matches.
func (a *Agent) RecordManualFollowUp(question, answer, subjectName string) {
	a.transcript.Append(question, answer, NormalizeSubjectName(subjectName))
}

func (a *Agent) generateNextQuestion(ctx context.Context) (string, error) {
	for {
		subjectIndex, ok := a.planner.NextSubjectToAsk()
		if !ok {
			return "", nil
		}
		initial := a.planner.QuestionsAsked(subjectIndex) == 0
		decision, err := a.requestQuestionDecision(ctx, subjectIndex, initial)
		if err != nil {
			return "", err
		}
		question := strings.TrimSpace(decision.Question)
		if question == "" {
			// Empty question means the model considers the subject done,
			// whether or not it said so explicitly.
			a.planner.MarkComplete(subjectIndex)
			continue
		}
		a.planner.RecordAsked(subjectIndex)
		a.pendingSubject = subjectIndex
		a.activeSubject = subjectIndex
		return question, nil
	}
}

func (a *Agent) requestQuestionDecision(ctx context.Context, subjectIndex int, initial bool) (QuestionDecision, error) {
	messages := []ai.Message{{Role: "system", Content: SystemGuidance()}}
	messages = append(messages, a.transcript.AsMessages()...)
	messages = append(messages, ai.Message{
		Role:    "user",
		Content: composeDecisionInstruction(a.planner, subjectIndex, initial, a.pack),
	})

	response, err := a.provider.Chat(ctx, messages)
	if err != nil {
		return QuestionDecision{}, err
	}
	decision := ParseQuestionDecision(response.Content)
	if decision.Notes != "" && a.logger != nil {
		a.logger.Debug("subject decision notes",
			"subject", a.planner.Subject(subjectIndex).Name,
			"notes", decision.Notes)
	}
	return decision, nil
}

// Summarize produces a functional-specification draft from the transcript.
// Up to three attempts are made to obtain parseable JSON; after that the raw
// response text is returned verbatim so the flow always moves forward.
func (a *Agent) Summarize(ctx context.Context) (string, error) {
	guidance := ai.Message{Role: "system", Content: SystemGuidance()}
	transcriptMessages := a.transcript.AsMessages()

	retryNote := ""
	rawContent := ""
	for attempt := 0; attempt < summaryMaxAttempts; attempt++ {
		messages := append([]ai.Message{guidance}, transcriptMessages...)
		messages = append(messages, ai.Message{
			Role:    "user",
			Content: a.buildSummarizationPrompt(retryNote),
		})

		response, err := a.provider.Chat(ctx, messages)
		if err != nil {
			return "", err
		}
		rawContent = strings.TrimSpace(response.Content)

		if summary := spec.Parse(rawContent); summary != nil {
			a.latestSummary = summary
			a.latestMarkdown = summary.Render()
			a.hasMarkdown = true
			return a.latestMarkdown, nil
		}
		a.latestSummary = nil
		retryNote = "Your previous response was not valid JSON matching the required schema. " +
			"Respond with JSON only - no markdown or surrounding commentary."
	}

	a.latestSummary = nil
	a.latestMarkdown = rawContent
	a.hasMarkdown = true
	return rawContent, nil
}

func (a *Agent) buildSummarizationPrompt(retryNote string) string {
	prompt := a.pack.Summarization
	if len(a.corrections) > 0 {
		var lines []string
		for _, correction := range a.corrections {
			lines = append(lines, "- "+correction)
		}
		prompt += "\n\nAdditional guidance for this draft:\n" + strings.Join(lines, "\n")
	}
	if retryNote != "" {
		prompt += "\n\n" + retryNote
	}
	return prompt
}

// ApplyReviewFeedback converts reviewer findings into correction notes that
// steer the next Summarize call.
func (a *Agent) ApplyReviewFeedback(rev *review.SpecificationReview) {
	if len(rev.MissingSubjects) > 0 {
		a.addCorrection("Ensure the specification explicitly addresses: " +
			strings.Join(rev.MissingSubjects, ", ") + ".")
	}
	if !rev.TableValid {
		instruction := strings.TrimSpace(rev.TableFeedback)
		if instruction == "" {
			instruction = "Ensure the 'Functional Requirements' table follows the format " +
				"'Spec ID | Specification Description | Business Rules/Data Dependency' " +
				"with sequential IDs (FR-1, FR-2, ...)."
		}
		a.addCorrection(instruction)
	}
}

// ClearReviewCorrections resets accumulated reviewer guidance.
func (a *Agent) ClearReviewCorrections() {
	a.corrections = a.corrections[:0]
}

func (a *Agent) addCorrection(instruction string) {
	note := strings.TrimSpace(instruction)
	if note == "" {
		return
	}
	for _, existing := range a.corrections {
		if existing == note {
			return
		}
	}
	a.corrections = append(a.corrections, note)
}

// FinalizeCurrentSummary runs the AS-IS and TO-BE confirmation rounds against
// the latest structured draft, regenerates diagrams, and re-renders the
// document. When only raw (unstructured) text is available it is returned
// unchanged.
func (a *Agent) FinalizeCurrentSummary(ctx context.Context) (string, error) {
	if a.latestSummary == nil {
		if !a.hasMarkdown {
			return "", forgeerrors.NewInterviewError("finalize", "no summary available to finalize")
		}
		return a.latestMarkdown, nil
	}

	a.asIs.Apply(ctx, a.latestSummary, a.transcript)
	a.toBe.Apply(ctx, a.latestSummary, a.transcript)
	a.generateProcessDiagrams()

	a.latestMarkdown = a.latestSummary.Render()
	return a.latestMarkdown, nil
}

func (a *Agent) generateProcessDiagrams() {
	summary := a.latestSummary
	if a.diagrams == nil {
		summary.CurrentProcessDiagrams = nil
		summary.FutureProcessDiagrams = nil
		return
	}
	summary.CurrentProcessDiagrams = a.renderDiagrams(
		renderableProcessesFor(summary.CurrentProcesses),
		"as_is", "AS-IS Process Flows")
	summary.FutureProcessDiagrams = a.renderDiagrams(
		spec.PadFutureProcesses(summary.FutureProcesses),
		"to_be", "Future (TO-BE) Process Flows")
}

func (a *Agent) renderDiagrams(processes []spec.Process, groupPrefix, contextLabel string) []string {
	if len(processes) == 0 {
		return nil
	}
	paths, err := a.diagrams.RenderProcesses(processes, groupPrefix, contextLabel)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("unable to render process diagram", "group", groupPrefix, "error", err)
		}
		return nil
	}
	return paths
}

// renderableProcessesFor mirrors the rendering rule: a process with no steps
// contributes nothing to a diagram.
func renderableProcessesFor(processes []spec.Process) []spec.Process {
	var kept []spec.Process
	for _, process := range processes {
		if len(process.HappyPath) == 0 && len(process.UnhappyPath) == 0 {
			continue
		}
		kept = append(kept, process)
	}
	return kept
}
