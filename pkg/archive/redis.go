package archive

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"thoreinstein.com/specforge/pkg/errors"
)

const (
	redisIndexKey = "transcripts:index"
	redisScopeKey = "transcripts:scope"
)

func redisRecordKey(recordID string) string { return "transcript:" + recordID }

// Mirror replicates archive records into Redis so other tools can subscribe
// to the same store the original pipeline used. Every operation is best
// effort; callers treat mirror errors as log-and-continue.
type Mirror struct {
	client *redis.Client
	logger *slog.Logger
}

// NewMirror connects a mirror from a redis URL
// (redis://host:port/db). An unparsable URL is a configuration error;
// an unreachable server surfaces later, per-operation.
func NewMirror(redisURL string, logger *slog.Logger) (*Mirror, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.NewConfigErrorWithCause("archive.redis_url",
			"invalid redis URL", err)
	}
	return &Mirror{client: redis.NewClient(opts), logger: logger}, nil
}

// Close shuts down the underlying connection pool.
func (m *Mirror) Close() error { return m.client.Close() }

// Store mirrors a full record: the JSON blob, the time-ordered index entry,
// and the scope lookup hash.
func (m *Mirror) Store(ctx context.Context, record *Record) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return errors.NewArchiveErrorWithCause("mirror", record.ID,
			"unable to encode record", err)
	}
	key := redisRecordKey(record.ID)
	pipe := m.client.Pipeline()
	pipe.Set(ctx, key, blob, 0)
	pipe.ZAdd(ctx, redisIndexKey, redis.Z{
		Score:  float64(record.CreatedAt.UTC().Unix()),
		Member: record.ID,
	})
	pipe.HSet(ctx, redisScopeKey, record.ID, record.Scope)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewArchiveErrorWithCause("mirror", record.ID,
			"redis persistence failed", err)
	}
	return nil
}

// UpdateSpec refreshes the spec text and path on a mirrored record. Missing
// records are recreated from scratch with just the spec fields populated.
func (m *Mirror) UpdateSpec(ctx context.Context, recordID, scope, specText, specPath string) error {
	key := redisRecordKey(recordID)
	record := &Record{ID: recordID, Scope: scope}
	raw, err := m.client.Get(ctx, key).Result()
	if err == nil {
		if unmarshalErr := json.Unmarshal([]byte(raw), record); unmarshalErr != nil {
			record = &Record{ID: recordID, Scope: scope}
		}
	} else if err != redis.Nil {
		return errors.NewArchiveErrorWithCause("mirror", recordID,
			"redis lookup failed", err)
	}
	record.SpecText = specText
	record.SpecPath = specPath

	blob, err := json.Marshal(record)
	if err != nil {
		return errors.NewArchiveErrorWithCause("mirror", recordID,
			"unable to encode record", err)
	}
	if err := m.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return errors.NewArchiveErrorWithCause("mirror", recordID,
			"redis persistence failed", err)
	}
	return nil
}

// Fetch retrieves a mirrored record; nil when absent.
func (m *Mirror) Fetch(ctx context.Context, recordID string) (*Record, error) {
	raw, err := m.client.Get(ctx, redisRecordKey(recordID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewArchiveErrorWithCause("mirror", recordID,
			"redis lookup failed", err)
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, errors.NewArchiveErrorWithCause("mirror", recordID,
			"mirrored record is malformed", err)
	}
	return &record, nil
}
