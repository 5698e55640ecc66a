// Package simulate drives complete interviews against an LLM-backed
// stakeholder persona, for exercising the workflow end to end.
package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"thoreinstein.com/specforge/pkg/ai"
	"thoreinstein.com/specforge/pkg/errors"
	"thoreinstein.com/specforge/pkg/spec"
)

// Persona describes the simulated stakeholder.
type Persona struct {
	ProjectName     string
	Company         string
	StakeholderRole string
	Context         string
	Goals           []string
	Risks           []string
	Preferences     []string
	Tone            string
}

// DefaultPersona is the built-in stakeholder used when generation fails or
// no override is supplied.
func DefaultPersona() Persona {
	return Persona{
		ProjectName:     "Unified Collaboration Platform",
		Company:         "Contoso Labs",
		StakeholderRole: "Director of Employee Experience",
		Context: "Deploying a cross-department platform to streamline onboarding " +
			"and service requests across HR, IT, and Facilities.",
		Goals: []string{
			"Launch an intuitive portal that reduces employee support tickets.",
			"Consolidate duplicate workflows across business units.",
			"Improve reporting on service-level expectations.",
		},
		Risks: []string{
			"Change fatigue from several recent system rollouts.",
			"Integration delays with legacy HR and finance systems.",
			"Compliance gaps for regional data retention rules.",
		},
		Preferences: []string{
			"Values plain language and concrete next steps.",
			"Prefers weekly check-ins with clear status indicators.",
			"Wants decisions backed by pilot metrics.",
		},
		Tone: "Be pragmatic, candid, and collaborative.",
	}
}

// PersonaFromMap builds a persona from loosely typed data, filling every
// missing or blank field from the default persona.
func PersonaFromMap(data map[string]any) Persona {
	defaults := DefaultPersona()
	persona := Persona{
		ProjectName:     stringOr(data["project_name"], defaults.ProjectName),
		Company:         stringOr(data["company"], defaults.Company),
		StakeholderRole: stringOr(data["stakeholder_role"], defaults.StakeholderRole),
		Context:         stringOr(data["context"], defaults.Context),
		Goals:           stringListOr(data["goals"], defaults.Goals),
		Risks:           stringListOr(data["risks"], defaults.Risks),
		Preferences:     stringListOr(data["preferences"], defaults.Preferences),
		Tone:            stringOr(data["tone"], defaults.Tone),
	}
	return persona
}

// SummaryLines formats the persona for operator display.
func (p Persona) SummaryLines() []string {
	return []string{
		"Project: " + p.ProjectName,
		"Company: " + p.Company,
		"Stakeholder role: " + p.StakeholderRole,
		"Context: " + p.Context,
		"Goals: " + strings.Join(p.Goals, "; "),
		"Risks: " + strings.Join(p.Risks, "; "),
		"Preferences: " + strings.Join(p.Preferences, "; "),
		"Tone: " + p.Tone,
	}
}

// Summary returns the persona as one printable block.
func (p Persona) Summary() string {
	return strings.Join(p.SummaryLines(), "\n")
}

const personaSystemPrompt = "You design detailed yet concise stakeholder personas."

// GeneratePersona asks the model to invent a stakeholder for the scope. Any
// failure, transport or parse, falls back to the default persona so a
// simulation always has someone to talk to.
func GeneratePersona(ctx context.Context, provider ai.Provider, scope string, seed *int, logger *slog.Logger) Persona {
	scopeLabel := strings.ReplaceAll(scope, "_", " ")
	seedLine := ""
	if seed != nil {
		seedLine = fmt.Sprintf("Use creative seed %d to add variation.\n", *seed)
	}
	prompt := "Create a realistic stakeholder persona for a business analyst interview.\n" +
		fmt.Sprintf("The interview focuses on a %s initiative.\n", scopeLabel) +
		seedLine +
		"Return a compact JSON object with fields: project_name, company, " +
		"stakeholder_role, context, goals, risks, preferences, and tone.\n" +
		"Make goals, risks, and preferences arrays of 3 short phrases each."

	response, err := provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: personaSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		if logger != nil {
			logger.Warn("persona generation failed; using default persona", "error", err)
		}
		return DefaultPersona()
	}
	data := spec.ExtractJSONObject(response.Content)
	if data == nil {
		if logger != nil {
			logger.Warn("persona response was not JSON; using default persona")
		}
		return DefaultPersona()
	}
	return PersonaFromMap(data)
}

// LoadPersonaFile reads a persona override from a JSON file.
func LoadPersonaFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigErrorWithCause("simulate.persona_file",
			"unable to read persona file", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.NewConfigErrorWithCause("simulate.persona_file",
			"persona file must contain a JSON object", err)
	}
	return data, nil
}

func stringOr(value any, fallback string) string {
	text, ok := value.(string)
	if !ok {
		return fallback
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return fallback
}

// stringListOr accepts a list of values or a ";"-separated string.
func stringListOr(value any, fallback []string) []string {
	var items []string
	switch typed := value.(type) {
	case []any:
		for _, element := range typed {
			if text := strings.TrimSpace(fmt.Sprint(element)); text != "" {
				items = append(items, text)
			}
		}
	case []string:
		for _, element := range typed {
			if text := strings.TrimSpace(element); text != "" {
				items = append(items, text)
			}
		}
	case string:
		for _, segment := range strings.Split(typed, ";") {
			if text := strings.TrimSpace(segment); text != "" {
				items = append(items, text)
			}
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
