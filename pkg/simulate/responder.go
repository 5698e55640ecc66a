package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/derive"
	"thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/interview"
)

const (
	// historyWindow is how many prior exchanges the stakeholder "remembers"
	// when answering the next question.
	historyWindow = 4
	// specExcerptLimit bounds the draft shown for closing feedback.
	specExcerptLimit = 1500
)

// StakeholderResponder is the LLM-backed simulated stakeholder. It answers
// interviewer questions and reviewer follow-ups, approves AS-IS/TO-BE
// confirmation rounds, and reacts to the closing prompt, staying in persona
// throughout.
type StakeholderResponder struct {
	persona  Persona
	provider ai.Provider
	logger   *slog.Logger

	history []exchange
}

type exchange struct {
	question string
	answer   string
}

// NewStakeholderResponder creates a responder for one simulation run.
func NewStakeholderResponder(persona Persona, provider ai.Provider, logger *slog.Logger) *StakeholderResponder {
	return &StakeholderResponder{persona: persona, provider: provider, logger: logger}
}

// Persona returns the stakeholder this responder plays.
func (r *StakeholderResponder) Persona() Persona { return r.persona }

func (r *StakeholderResponder) systemPrompt() string {
	return fmt.Sprintf(
		"You are %s at %s.\n"+
			"You are collaborating on the '%s' initiative.\n"+
			"Context: %s\n"+
			"Goals: %s\n"+
			"Risks: %s\n"+
			"Preferences: %s\n"+
			"Tone guidance: %s\n"+
			"Respond like a human stakeholder, using 2-4 sentences with "+
			"practical, domain-informed detail. Never mention that you are "+
			"an AI model.",
		r.persona.StakeholderRole,
		r.persona.Company,
		r.persona.ProjectName,
		r.persona.Context,
		strings.Join(r.persona.Goals, "; "),
		strings.Join(r.persona.Risks, "; "),
		strings.Join(r.persona.Preferences, "; "),
		r.persona.Tone,
	)
}

// Answer replies to an interviewer question in persona.
func (r *StakeholderResponder) Answer(ctx context.Context, question string) (string, error) {
	messages := []ai.Message{{Role: "system", Content: r.systemPrompt()}}
	messages = append(messages, r.historyMessages()...)
	messages = append(messages, ai.Message{
		Role: "user",
		Content: "Interviewer question: " + strings.TrimSpace(question) + "\n" +
			"Reply as the stakeholder in 2-4 sentences. Reference goals, risks, " +
			"and preferences when relevant, and keep the tone collaborative.",
	})

	response, err := r.provider.Chat(ctx, messages)
	if err != nil {
		return "", errors.NewInterviewErrorWithCause("simulate",
			"simulated stakeholder failed to answer", err)
	}
	answer := strings.TrimSpace(response.Content)
	r.history = append(r.history, exchange{question: question, answer: answer})
	return answer, nil
}

// CollectAnswer answers a reviewer follow-up the same way as a direct
// interviewer question.
func (r *StakeholderResponder) CollectAnswer(ctx context.Context, prompt interview.FollowUpPrompt) (string, error) {
	return r.Answer(ctx, prompt.Question)
}

// ClosingFeedback reacts to the final draft with a short in-persona reply.
func (r *StakeholderResponder) ClosingFeedback(ctx context.Context, specText string) (string, error) {
	excerpt := strings.TrimSpace(specText)
	if len(excerpt) > specExcerptLimit {
		excerpt = excerpt[:specExcerptLimit] + "\n..."
	}

	var recap []string
	start := len(r.history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range r.history[start:] {
		recap = append(recap, "BA: "+turn.question, "Stakeholder: "+turn.answer)
	}

	prompt := "You have just reviewed the interview summary shown below. " +
		"Provide a short (max two sentences) reaction that confirms what " +
		"feels complete and any final requests.\n" +
		"Conversation recap:\n" + strings.Join(recap, "\n") + "\n\n" +
		"Draft specification:\n-----\n" + excerpt + "\n-----"

	response, err := r.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: r.systemPrompt()},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", errors.NewInterviewErrorWithCause("simulate",
			"simulated stakeholder failed to give closing feedback", err)
	}
	return strings.TrimSpace(response.Content), nil
}

// Confirm approves state proposals as drafted. The simulated stakeholder
// trusts the derivation; edits come through reviewer follow-ups instead.
func (r *StakeholderResponder) Confirm(_ context.Context, proposal derive.Proposal) (*derive.Result, error) {
	if r.logger != nil {
		r.logger.Debug("simulated stakeholder approved state proposal",
			"kind", string(proposal.Kind), "items", len(proposal.Items))
	}
	return &derive.Result{
		Items:              proposal.Items,
		Processes:          proposal.Processes,
		StakeholderComment: "Looks accurate, approved as drafted.",
	}, nil
}

func (r *StakeholderResponder) historyMessages() []ai.Message {
	start := len(r.history) - historyWindow
	if start < 0 {
		start = 0
	}
	var messages []ai.Message
	for _, turn := range r.history[start:] {
		messages = append(messages,
			ai.Message{Role: "user", Content: turn.question},
			ai.Message{Role: "assistant", Content: turn.answer},
		)
	}
	return messages
}
