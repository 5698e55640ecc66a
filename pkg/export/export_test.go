package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = "## Functional Specification: Claims Triage\n\n" +
	"**1. Project Overview & Objectives**\nTriage claims faster.\n\n" +
	"*   **Project Objective:** Cut cycle time in half.\n\n" +
	"| Req ID | Requirement | Rules |\n| FR-1 | Route claims | Threshold configurable |\n"

func newTestExporter(t *testing.T, pdfEnabled bool) (*Exporter, string) {
	t.Helper()
	dir := t.TempDir()
	exporter, err := NewExporter(dir, pdfEnabled, nil)
	require.NoError(t, err)
	exporter.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return exporter, dir
}

func TestExportWritesMarkdown(t *testing.T) {
	exporter, dir := newTestExporter(t, false)

	artifacts, err := exporter.Export("project", sampleSpec)
	require.NoError(t, err)

	expected := filepath.Join(dir, "functional_spec_project_20260314_092653.md")
	assert.Equal(t, expected, artifacts.MarkdownPath)
	assert.Empty(t, artifacts.PDFPath)

	content, err := os.ReadFile(artifacts.MarkdownPath)
	require.NoError(t, err)
	assert.Equal(t, sampleSpec, string(content))
}

func TestExportScopeInFilename(t *testing.T) {
	exporter, _ := newTestExporter(t, false)

	artifacts, err := exporter.Export("change_request", sampleSpec)
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(artifacts.MarkdownPath), "functional_spec_change_request_")
}

func TestExportWritesPDFSibling(t *testing.T) {
	exporter, _ := newTestExporter(t, true)

	artifacts, err := exporter.Export("project", sampleSpec)
	require.NoError(t, err)
	require.NotEmpty(t, artifacts.PDFPath)
	assert.Equal(t, artifacts.MarkdownPath[:len(artifacts.MarkdownPath)-3]+".pdf", artifacts.PDFPath)

	info, err := os.Stat(artifacts.PDFPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestIsSectionHeader(t *testing.T) {
	assert.True(t, isSectionHeader("**1. Project Overview & Objectives**"))
	assert.True(t, isSectionHeader("**10. Functional Requirements Table**"))
	assert.False(t, isSectionHeader("**Project Objective:**"))
	assert.False(t, isSectionHeader("plain text"))
}

func TestImageTarget(t *testing.T) {
	assert.Equal(t, "as_is_intake.svg", imageTarget("![AS-IS Process Diagram](as_is_intake.svg)"))
	assert.Equal(t, "broken", imageTarget("broken"))
}
