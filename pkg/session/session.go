// Package session wraps one interview in a message-driven state machine so
// transports can drive it turn by turn, plus a bounded store for concurrent
// conversations.
//
// This is the transport-facing layer for embedders: the CLI drives the
// interview engine directly, so nothing in this repository consumes the
// package outside its tests. A chat integration would hold one Session per
// conversation thread, keyed through Store and persisted via ThreadMap.
package session

import (
	"context"
	"fmt"
	"strings"

	"thoreinstein.com/specforge/pkg/archive"
	"thoreinstein.com/specforge/pkg/export"
	"thoreinstein.com/specforge/pkg/interview"
)

// Artifacts mirrors the exported file locations for the latest spec.
type Artifacts struct {
	MarkdownPath string
	PDFPath      string
}

// Session owns one interview conversation. It is not safe for concurrent
// use; the Store serializes access per thread.
type Session struct {
	agent    *interview.Agent
	exporter *export.Exporter
	archive  *archive.Archive
	scope    string

	completed       bool
	awaitingClosing bool
	pendingSpecText string
	finalMessage    string

	lastSpecText     string
	lastMarkdownPath string
	lastPDFPath      string
	recordID         string
}

// New creates a session around an interview agent. exporter and archive may
// be nil when the transport only wants the conversation itself.
func New(agent *interview.Agent, exporter *export.Exporter, arch *archive.Archive, scope string) *Session {
	return &Session{agent: agent, exporter: exporter, archive: arch, scope: scope}
}

// Completed reports whether the interview has finished.
func (s *Session) Completed() bool { return s.completed }

// RecordID returns the archive record id once the session has persisted.
func (s *Session) RecordID() string { return s.recordID }

// Kickoff starts the interview and returns the opening question.
func (s *Session) Kickoff(ctx context.Context) (string, error) {
	question, err := s.agent.Kickoff(ctx)
	if err != nil {
		return "", err
	}
	s.agent.RecordQuestion(question)
	return question, nil
}

// HandleUserMessage advances the state machine with one stakeholder message
// and returns the assistant utterances to emit, in order. Empty input yields
// no updates.
func (s *Session) HandleUserMessage(ctx context.Context, userText string) ([]string, error) {
	normalized := strings.TrimSpace(userText)
	if normalized == "" {
		return nil, nil
	}

	if s.awaitingClosing {
		return s.handleClosingFeedback(ctx, normalized)
	}

	if interview.IsTerminationSignal(normalized) {
		message, err := s.finalizeQuestioning(ctx)
		if err != nil {
			return nil, err
		}
		return []string{message}, nil
	}

	followUp, err := s.agent.NextQuestion(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if followUp == "" {
		message, err := s.finalizeQuestioning(ctx)
		if err != nil {
			return nil, err
		}
		return []string{message}, nil
	}
	s.agent.RecordQuestion(followUp)
	return []string{followUp}, nil
}

// SpecPreview returns the latest specification draft, reusing the previous
// export unless forceRefresh is set.
func (s *Session) SpecPreview(ctx context.Context, forceRefresh bool) (string, *Artifacts, error) {
	if !forceRefresh && s.lastSpecText != "" && s.lastMarkdownPath != "" {
		return s.lastSpecText, &Artifacts{
			MarkdownPath: s.lastMarkdownPath,
			PDFPath:      s.lastPDFPath,
		}, nil
	}

	specText, err := s.agent.Summarize(ctx)
	if err != nil {
		return "", nil, err
	}
	artifacts, err := s.export(specText)
	if err != nil {
		return "", nil, err
	}
	s.pendingSpecText = specText
	s.lastSpecText = specText
	return specText, artifacts, nil
}

func (s *Session) finalizeQuestioning(ctx context.Context) (string, error) {
	if s.finalMessage != "" && (s.completed || s.awaitingClosing) {
		return s.finalMessage, nil
	}
	specText, err := s.agent.Summarize(ctx)
	if err != nil {
		return "", err
	}
	s.pendingSpecText = specText
	s.awaitingClosing = true
	s.finalMessage = specText + "\n\n" + interview.ClosingPrompt
	return s.finalMessage, nil
}

func (s *Session) handleClosingFeedback(ctx context.Context, userText string) ([]string, error) {
	var updates []string
	s.agent.RecordQuestionWithAnswer(interview.ClosingPrompt, userText)

	finalSpec := s.pendingSpecText
	if interview.WantsClosingUpdate(userText) {
		updates = append(updates, "BA Agent: Thanks! I'll incorporate that feedback into the specification.")
		updated, err := s.agent.Summarize(ctx)
		if err != nil {
			return nil, err
		}
		updates = append(updates, "Updated functional specification draft:\n\n"+updated)
		finalSpec = updated
	} else {
		updates = append(updates, "BA Agent: Understood. We'll keep the specification as-is.")
		if finalSpec == "" {
			fallback, err := s.agent.Summarize(ctx)
			if err != nil {
				return nil, err
			}
			finalSpec = fallback
		}
	}
	s.pendingSpecText = finalSpec

	artifacts, err := s.export(finalSpec)
	if err != nil {
		return nil, err
	}
	if s.archive != nil {
		s.recordID = s.archive.Save(ctx, s.agent.Transcript(), finalSpec, artifacts.MarkdownPath)
	}
	s.lastSpecText = finalSpec

	lines := []string{"Interview complete. Functional specification saved to:"}
	if artifacts.MarkdownPath != "" {
		lines = append(lines, fmt.Sprintf(" - %s", artifacts.MarkdownPath))
	}
	if artifacts.PDFPath != "" {
		lines = append(lines, fmt.Sprintf(" - %s", artifacts.PDFPath))
	}
	if s.recordID != "" {
		lines = append(lines, "Transcript id: "+s.recordID)
	}
	closing := strings.Join(lines, "\n")
	updates = append(updates, closing)

	s.completed = true
	s.awaitingClosing = false
	s.finalMessage = closing
	return updates, nil
}

func (s *Session) export(specText string) (*Artifacts, error) {
	if s.exporter == nil {
		return &Artifacts{}, nil
	}
	exported, err := s.exporter.Export(s.scope, specText)
	if err != nil {
		return nil, err
	}
	s.lastMarkdownPath = exported.MarkdownPath
	s.lastPDFPath = exported.PDFPath
	return &Artifacts{MarkdownPath: exported.MarkdownPath, PDFPath: exported.PDFPath}, nil
}
