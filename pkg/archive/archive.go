package archive

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"thoreinstein.com/specforge/pkg/interview"
)

// Archive is the persistence facade for finished interviews. The JSONL log
// is authoritative; the SQLite index and Redis mirror are optional accelerants
// whose failures never lose a transcript.
type Archive struct {
	logPath string
	index   *Index
	mirror  *Mirror
	logger  *slog.Logger

	now func() time.Time
}

// New creates an archive over the JSONL log at logPath. index and mirror may
// be nil; browsing then falls back to replaying the log.
func New(logPath string, index *Index, mirror *Mirror, logger *slog.Logger) *Archive {
	return &Archive{
		logPath: logPath,
		index:   index,
		mirror:  mirror,
		logger:  logger,
		now:     time.Now,
	}
}

// Save persists a finished interview and returns its record id. An empty id
// means the transcript could not be written; secondary store failures keep
// the id and are only logged.
func (a *Archive) Save(ctx context.Context, transcript *interview.Transcript, specText, specPath string) string {
	createdAt := a.now().UTC()
	record := &Record{
		ID:            NewRecordID(createdAt),
		Scope:         transcript.Scope,
		CreatedAt:     createdAt,
		Turns:         convertTurns(transcript.Turns),
		SpecText:      specText,
		SpecPath:      specPath,
		InitialPrompt: transcript.InitialUserPrompt,
	}

	if err := appendRecord(a.logPath, record); err != nil {
		a.warn("transcript archive write failed", record.ID, err)
		return ""
	}
	if a.index != nil {
		if err := a.index.Upsert(record); err != nil {
			a.warn("transcript index update failed", record.ID, err)
		}
	}
	if a.mirror != nil {
		if err := a.mirror.Store(ctx, record); err != nil {
			a.warn("transcript redis mirror failed", record.ID, err)
		}
	}
	return record.ID
}

// AppendSpecUpdate records a refreshed specification for an existing session.
func (a *Archive) AppendSpecUpdate(ctx context.Context, recordID, scope, specText, specPath string) {
	if recordID == "" {
		return
	}
	if err := appendSpecUpdate(a.logPath, recordID, scope, specText, specPath); err != nil {
		a.warn("spec update write failed", recordID, err)
		return
	}
	if a.index != nil {
		if records, err := loadLog(a.logPath); err == nil {
			if record := records[recordID]; record != nil {
				if err := a.index.Upsert(record); err != nil {
					a.warn("transcript index update failed", recordID, err)
				}
			}
		}
	}
	if a.mirror != nil {
		if err := a.mirror.UpdateSpec(ctx, recordID, scope, specText, specPath); err != nil {
			a.warn("transcript redis mirror failed", recordID, err)
		}
	}
}

// List returns the newest sessions, optionally filtered by scope.
func (a *Archive) List(limit int, scope string) ([]Summary, error) {
	if a.index != nil {
		return a.index.List(limit, scope)
	}
	records, err := loadLog(a.logPath)
	if err != nil {
		return nil, err
	}
	summaries := summarize(records, scope)
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Search returns sessions containing the query text, newest first.
func (a *Archive) Search(query string, limit int, scope string) ([]Summary, error) {
	if a.index != nil {
		return a.index.Search(query, limit, scope)
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	records, err := loadLog(a.logPath)
	if err != nil {
		return nil, err
	}
	matching := make(map[string]*Record)
	for id, record := range records {
		if strings.Contains(record.SearchableBlob(), needle) {
			matching[id] = record
		}
	}
	summaries := summarize(matching, scope)
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries, nil
}

// Get retrieves a full session record, preferring the mirror over a log
// replay. Returns nil when the id is unknown.
func (a *Archive) Get(ctx context.Context, recordID string) (*Record, error) {
	if a.mirror != nil {
		record, err := a.mirror.Fetch(ctx, recordID)
		if err != nil {
			a.warn("redis fetch failed; falling back to archive log", recordID, err)
		} else if record != nil {
			return record, nil
		}
	}
	records, err := loadLog(a.logPath)
	if err != nil {
		return nil, err
	}
	return records[recordID], nil
}

func (a *Archive) warn(message, recordID string, err error) {
	if a.logger != nil {
		a.logger.Warn(message, "record_id", recordID, "error", err)
	}
}

func convertTurns(turns []interview.Turn) []Turn {
	converted := make([]Turn, len(turns))
	for i, turn := range turns {
		converted[i] = Turn{Question: turn.Question, Answer: turn.Answer, Subject: turn.Subject}
	}
	return converted
}

func summarize(records map[string]*Record, scope string) []Summary {
	var summaries []Summary
	for _, record := range records {
		if scope != "" && record.Scope != scope {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        record.ID,
			Scope:     record.Scope,
			CreatedAt: record.CreatedAt,
			TurnCount: record.TurnCount(),
			SpecPath:  record.SpecPath,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}
