package archive

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"thoreinstein.com/specforge/pkg/errors"
)

// metaEnvelope is the "_meta" line preceding the entries of one batch.
type metaEnvelope struct {
	Meta metaBody `json:"_meta"`
}

type metaBody struct {
	SessionID string  `json:"session_id"`
	TS        string  `json:"ts"`
	NRecords  int     `json:"n_records"`
	Turn      int     `json:"turn,omitempty"`
	Summary   bool    `json:"summary,omitempty"`
	Scope     string  `json:"scope"`
	SpecPath  *string `json:"spec_path,omitempty"`
}

// entryLine is one speaker utterance in the log.
type entryLine struct {
	Speaker   string `json:"speaker"`
	Message   string `json:"message"`
	Subject   string `json:"subject"`
	QIndex    int    `json:"q_index"`
	Timestamp string `json:"timestamp"`
}

const (
	speakerInterviewer = "interviewer"
	speakerUser        = "user"

	summarySubject = "Functional Specification"
)

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15:04:05.000000Z")
}

// appendRecord writes the turn batches and the summary entry for one session
// to the log file.
func appendRecord(path string, record *Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewArchiveErrorWithCause("append", record.ID,
			"unable to create archive directory", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.NewArchiveErrorWithCause("append", record.ID,
			"unable to open archive log", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encode := func(v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if _, err := writer.Write(payload); err != nil {
			return err
		}
		return writer.WriteByte('\n')
	}

	now := formatTimestamp(record.CreatedAt)
	for index, turn := range record.Turns {
		batch := []any{
			metaEnvelope{Meta: metaBody{
				SessionID: record.ID,
				TS:        now,
				NRecords:  2,
				Turn:      index + 1,
				Scope:     record.Scope,
			}},
			entryLine{Speaker: speakerInterviewer, Message: turn.Question, Subject: turn.Subject, QIndex: index + 1, Timestamp: now},
			entryLine{Speaker: speakerUser, Message: turn.Answer, Subject: turn.Subject, QIndex: index + 1, Timestamp: now},
		}
		for _, line := range batch {
			if err := encode(line); err != nil {
				return errors.NewArchiveErrorWithCause("append", record.ID,
					"unable to write archive entry", err)
			}
		}
	}

	if err := appendSummaryLines(writer, record, record.SpecText); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return errors.NewArchiveErrorWithCause("append", record.ID,
			"unable to flush archive log", err)
	}
	return nil
}

// appendSpecUpdate appends a refreshed specification snapshot for an existing
// session.
func appendSpecUpdate(path, recordID, scope, specText, specPath string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.NewArchiveErrorWithCause("update", recordID,
			"unable to open archive log", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	record := &Record{ID: recordID, Scope: scope, CreatedAt: time.Now(), SpecPath: specPath}
	if err := appendSummaryLines(writer, record, specText); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return errors.NewArchiveErrorWithCause("update", recordID,
			"unable to flush archive log", err)
	}
	return nil
}

func appendSummaryLines(writer *bufio.Writer, record *Record, specText string) error {
	now := formatTimestamp(time.Now())
	var specPath *string
	if record.SpecPath != "" {
		path := record.SpecPath
		specPath = &path
	}
	lines := []any{
		metaEnvelope{Meta: metaBody{
			SessionID: record.ID,
			TS:        now,
			NRecords:  1,
			Summary:   true,
			Scope:     record.Scope,
			SpecPath:  specPath,
		}},
		entryLine{Speaker: speakerInterviewer, Message: specText, Subject: summarySubject, QIndex: len(record.Turns) + 1, Timestamp: now},
	}
	for _, line := range lines {
		payload, err := json.Marshal(line)
		if err != nil {
			return errors.NewArchiveErrorWithCause("append", record.ID,
				"unable to encode summary entry", err)
		}
		if _, err := writer.Write(append(payload, '\n')); err != nil {
			return errors.NewArchiveErrorWithCause("append", record.ID,
				"unable to write summary entry", err)
		}
	}
	return nil
}

// parseLog reconstructs session records from the JSONL log. Malformed lines
// are skipped so a partially corrupt log still yields the healthy sessions.
func parseLog(reader io.Reader) map[string]*Record {
	sessions := make(map[string]*Record)

	currentSession := ""
	pendingSummary := false
	pendingSpecPath := ""
	pendingSubject := ""
	var pendingQuestion *string

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var envelope metaEnvelope
		if err := json.Unmarshal(text, &envelope); err == nil && envelope.Meta.SessionID != "" {
			currentSession = envelope.Meta.SessionID
			record, ok := sessions[currentSession]
			if !ok {
				record = &Record{ID: currentSession}
				sessions[currentSession] = record
			}
			if envelope.Meta.Scope != "" {
				record.Scope = envelope.Meta.Scope
			}
			if ts, err := time.Parse(time.RFC3339, envelope.Meta.TS); err == nil {
				if record.CreatedAt.IsZero() || ts.Before(record.CreatedAt) {
					record.CreatedAt = ts
				}
			}
			pendingSummary = envelope.Meta.Summary
			pendingSpecPath = ""
			if envelope.Meta.SpecPath != nil {
				pendingSpecPath = *envelope.Meta.SpecPath
			}
			pendingQuestion = nil
			continue
		}

		if currentSession == "" {
			continue
		}
		var entry entryLine
		if err := json.Unmarshal(text, &entry); err != nil || entry.Speaker == "" {
			continue
		}
		record := sessions[currentSession]

		if pendingSummary && entry.Speaker == speakerInterviewer {
			record.SpecText = entry.Message
			if pendingSpecPath != "" {
				record.SpecPath = pendingSpecPath
			}
			pendingSummary = false
			continue
		}
		switch entry.Speaker {
		case speakerInterviewer:
			question := entry.Message
			pendingQuestion = &question
			pendingSubject = entry.Subject
		case speakerUser:
			question := ""
			if pendingQuestion != nil {
				question = *pendingQuestion
			}
			record.Turns = append(record.Turns, Turn{
				Question: question,
				Answer:   entry.Message,
				Subject:  pendingSubject,
			})
			pendingQuestion = nil
			pendingSubject = ""
		}
	}
	return sessions
}

// loadLog parses the archive file; a missing file yields an empty map.
func loadLog(path string) (map[string]*Record, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]*Record{}, nil
	}
	if err != nil {
		return nil, errors.NewArchiveErrorWithCause("load", "",
			"unable to read archive log", err)
	}
	defer file.Close()
	return parseLog(file), nil
}
