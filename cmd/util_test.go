package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/specforge/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Interview: config.InterviewConfig{
			DefaultScope:        "project",
			SubjectMaxQuestions: 3,
			ReviewMaxPasses:     2,
		},
		Output: config.OutputConfig{
			Dir:        filepath.Join(dir, "specs"),
			DiagramCmd: "dot",
		},
		Archive: config.ArchiveConfig{
			LogPath: filepath.Join(dir, "transcripts.jsonl"),
		},
	}
}

func TestBuildDiagramRendererDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.DiagramCmd = ""

	renderer, err := buildDiagramRenderer(cfg, newLogger())
	require.NoError(t, err)
	assert.Nil(t, renderer)
}

func TestBuildDiagramRendererCreatesOutputDir(t *testing.T) {
	cfg := testConfig(t)

	renderer, err := buildDiagramRenderer(cfg, newLogger())
	require.NoError(t, err)
	require.NotNil(t, renderer)

	info, err := os.Stat(cfg.Output.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestBuildArchiveWithoutOptionalLayers(t *testing.T) {
	cfg := testConfig(t)

	arch, closer := buildArchive(cfg, newLogger())
	defer closer()
	require.NotNil(t, arch)

	sessions, err := arch.List(10, "")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestBuildArchiveOpensConfiguredIndex(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.DatabasePath = filepath.Join(t.TempDir(), "index.db")

	arch, closer := buildArchive(cfg, newLogger())
	defer closer()
	require.NotNil(t, arch)

	_, err := os.Stat(cfg.Archive.DatabasePath)
	assert.NoError(t, err, "index database should be created")
}

func parseCapFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "capcmd"}
	registerInterviewCapFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestApplyInterviewCapFlagsDefaultsToConfig(t *testing.T) {
	cfg := testConfig(t)
	cmd := parseCapFlags(t)

	require.NoError(t, applyInterviewCapFlags(cmd, cfg))
	assert.Equal(t, 3, cfg.Interview.SubjectMaxQuestions)
	assert.Equal(t, 2, cfg.Interview.ReviewMaxPasses)
}

func TestApplyInterviewCapFlagsOverridesConfig(t *testing.T) {
	cfg := testConfig(t)
	cmd := parseCapFlags(t, "--subject-max-questions", "5", "--review-max-passes", "4")

	require.NoError(t, applyInterviewCapFlags(cmd, cfg))
	assert.Equal(t, 5, cfg.Interview.SubjectMaxQuestions)
	assert.Equal(t, 4, cfg.Interview.ReviewMaxPasses)
}

func TestApplyInterviewCapFlagsRejectsValuesBelowOne(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero subject cap", []string{"--subject-max-questions", "0"}, "--subject-max-questions must be >= 1"},
		{"negative subject cap", []string{"--subject-max-questions", "-2"}, "--subject-max-questions must be >= 1"},
		{"zero review passes", []string{"--review-max-passes", "0"}, "--review-max-passes must be >= 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cmd := parseCapFlags(t, tt.args...)

			err := applyInterviewCapFlags(cmd, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInterviewCommandExitsOnInvalidSubjectCap(t *testing.T) {
	// Not parallel - drives the global rootCmd.
	t.Setenv("HOME", t.TempDir())
	defer resetConfig()
	defer func() {
		rootCmd.SetArgs(nil)
		flag := interviewCmd.Flags().Lookup("subject-max-questions")
		flag.Changed = false
	}()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"interview", "--subject-max-questions", "0"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--subject-max-questions must be >= 1")
}

func TestBuildArchiveSkipsBrokenMirror(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.RedisURL = "not a url"

	arch, closer := buildArchive(cfg, newLogger())
	defer closer()
	assert.NotNil(t, arch, "broken mirror config should not prevent archiving")
}
