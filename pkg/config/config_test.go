package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeScope(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback string
		expected string
		wantErr  bool
	}{
		{"exact project", "project", "", "project", false},
		{"exact process", "process", "", "process", false},
		{"exact change_request", "change_request", "", "change_request", false},
		{"hyphenated", "change-request", "", "change_request", false},
		{"spaced", "Change Request", "", "change_request", false},
		{"mixed case with padding", "  PROJECT  ", "", "project", false},
		{"empty uses fallback", "", "process", "process", false},
		{"empty without fallback", "", "", "", true},
		{"unsupported", "initiative", "project", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := NormalizeScope(tt.input, tt.fallback)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, scope)
		})
	}
}

func validConfig() *Config {
	return &Config{
		Interview: InterviewConfig{
			DefaultScope:        "project",
			SubjectMaxQuestions: 3,
			ReviewMaxPasses:     2,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{
			"bad default scope",
			func(c *Config) { c.Interview.DefaultScope = "sprint" },
			"interview.default_scope",
		},
		{
			"zero question cap",
			func(c *Config) { c.Interview.SubjectMaxQuestions = 0 },
			"subject_max_questions",
		},
		{
			"zero review passes",
			func(c *Config) { c.Interview.ReviewMaxPasses = 0 },
			"review_max_passes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
