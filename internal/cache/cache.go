// Package cache keeps fetched workspace schemas in a local SQLite database
// so repeated generator runs do not refetch every list.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/matthewbaird/zkgen/internal/schema"
	"github.com/matthewbaird/zkgen/zenkit"
)

// DefaultTTL is how long a cached schema is served before it is refetched.
const DefaultTTL = time.Hour

const ddl = `CREATE TABLE IF NOT EXISTS schema_cache (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Source is a schema.Source that answers from the cache while entries are
// fresh and from its upstream otherwise.
type Source struct {
	db       *sql.DB
	upstream schema.Source
	ttl      time.Duration
	log      *zap.SugaredLogger
	now      func() time.Time
}

var _ schema.Source = (*Source)(nil)

// Open opens (creating if needed) the cache database at path. A ttl of
// zero or less uses DefaultTTL.
func Open(ctx context.Context, path string, upstream schema.Source, ttl time.Duration, log *zap.SugaredLogger) (*Source, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "initializing cache %s", path)
	}
	return &Source{db: db, upstream: upstream, ttl: ttl, log: log, now: time.Now}, nil
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}

// Workspaces implements schema.Source.
func (s *Source) Workspaces(ctx context.Context) ([]zenkit.Workspace, error) {
	var out []zenkit.Workspace
	err := s.through(ctx, "workspaces", &out, func() (any, error) {
		return s.upstream.Workspaces(ctx)
	})
	return out, err
}

// ListInfo implements schema.Source.
func (s *Source) ListInfo(ctx context.Context, workspaceID zenkit.ID, listUUID string) (*zenkit.ListInfo, error) {
	key := "list/" + strconv.FormatUint(uint64(workspaceID), 10) + "/" + listUUID
	var out zenkit.ListInfo
	err := s.through(ctx, key, &out, func() (any, error) {
		return s.upstream.ListInfo(ctx, workspaceID, listUUID)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Purge removes every cached entry.
func (s *Source) Purge(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM schema_cache`)
	return errors.Wrap(err, "purging cache")
}

// through decodes the fresh entry for key into out, or calls fetch, stores
// its result and decodes that.
func (s *Source) through(ctx context.Context, key string, out any, fetch func() (any, error)) error {
	data, ok, err := s.lookup(ctx, key)
	if err != nil {
		// A broken cache degrades to direct fetches.
		s.log.Warnw("reading schema cache", "key", key, "error", err)
	}
	if ok {
		if err := json.Unmarshal(data, out); err == nil {
			s.log.Debugw("schema cache hit", "key", key)
			return nil
		}
		s.log.Warnw("discarding undecodable cache entry", "key", key)
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	if err := s.store(ctx, key, data); err != nil {
		s.log.Warnw("writing schema cache", "key", key, "error", err)
	}
	return json.Unmarshal(data, out)
}

func (s *Source) lookup(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data    []byte
		fetched int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, fetched_at FROM schema_cache WHERE key = ?`, key,
	).Scan(&data, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if s.now().Sub(time.Unix(fetched, 0)) >= s.ttl {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Source) store(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_cache (key, data, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at
	`, key, data, s.now().Unix())
	return err
}
