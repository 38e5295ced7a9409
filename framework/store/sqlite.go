package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultCacheTTL is how long FindOne results stay cached.
const DefaultCacheTTL = 5 * time.Minute

// TimeLayout formats stamps with fixed width so they sort as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists documents to SQLite, one row per document with the
// body kept as JSON. FindOne reads through an in-memory cache that every
// write to the document invalidates.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool

	cache  *gocache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithCacheTTL sets the FindOne cache lifetime. Zero or less disables the
// cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *SQLiteStore) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = gocache.New(ttl, 2*ttl)
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// WithClock overrides the time source used for stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLiteStore opens (or creates) the database at path.
// The path should be a file path (e.g., "./planteuf.db") or ":memory:" for testing.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE (collection, id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_created
		ON documents(collection, created_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		cache:  gocache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ── Writes ─────────────────────────────────────────────────────────────────

// InsertOne implements DocumentStore.
func (s *SQLiteStore) InsertOne(ctx context.Context, c Collection, doc Document) (string, error) {
	ids, err := s.write(ctx, "insert_one", c, []Document{doc}, s.insert)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany implements DocumentStore.
func (s *SQLiteStore) InsertMany(ctx context.Context, c Collection, docs []Document) ([]string, error) {
	return s.write(ctx, "insert_many", c, docs, s.insert)
}

// UpdateOne implements DocumentStore.
func (s *SQLiteStore) UpdateOne(ctx context.Context, c Collection, doc Document) (string, error) {
	ids, err := s.write(ctx, "update_one", c, []Document{doc}, s.update(false))
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UpdateMany implements DocumentStore.
func (s *SQLiteStore) UpdateMany(ctx context.Context, c Collection, docs []Document) ([]string, error) {
	return s.write(ctx, "update_many", c, docs, s.update(false))
}

// InsertOrUpdateOne implements DocumentStore.
func (s *SQLiteStore) InsertOrUpdateOne(ctx context.Context, c Collection, doc Document) (string, error) {
	ids, err := s.write(ctx, "insert_or_update_one", c, []Document{doc}, s.update(true))
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertOrUpdateMany implements DocumentStore.
func (s *SQLiteStore) InsertOrUpdateMany(ctx context.Context, c Collection, docs []Document) ([]string, error) {
	return s.write(ctx, "insert_or_update_many", c, docs, s.update(true))
}

type writeFunc func(ctx context.Context, tx *sql.Tx, c Collection, doc Document, stamp string) (string, error)

// write runs fn for every document inside one transaction and evicts the
// written ids from the cache.
func (s *SQLiteStore) write(ctx context.Context, op string, c Collection, docs []Document, fn writeFunc) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, &StoreError{Op: op, Collection: c, Err: ErrStoreClosed}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StoreError{Op: op, Collection: c, Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	stamp := s.now().UTC().Format(TimeLayout)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id, err := fn(ctx, tx, c, doc, stamp)
		if err != nil {
			s.logger.Error("document write failed",
				slog.String("op", op),
				slog.String("collection", string(c)),
				slog.String("error", err.Error()),
			)
			return nil, &StoreError{Op: op, Collection: c, Err: err}
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, &StoreError{Op: op, Collection: c, Err: fmt.Errorf("commit: %w", err)}
	}
	for _, id := range ids {
		s.forget(c, id)
	}
	s.logger.Debug("documents written",
		slog.String("op", op),
		slog.String("collection", string(c)),
		slog.Any("ids", ids),
	)
	return ids, nil
}

func (s *SQLiteStore) insert(ctx context.Context, tx *sql.Tx, c Collection, doc Document, stamp string) (string, error) {
	row := doc.Clone()
	if row == nil {
		row = Document{}
	}
	id := row.ID()
	if id == "" {
		id = uuid.NewString()
	}
	row[FieldID] = id
	row[FieldCreatedAt] = stamp
	row[FieldUpdatedAt] = stamp

	data, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(c), id, string(data), stamp, stamp); err != nil {
		return "", fmt.Errorf("insert %s: %w", id, err)
	}
	return id, nil
}

// update merges doc into the stored document; with upsert a missing
// document is inserted instead.
func (s *SQLiteStore) update(upsert bool) writeFunc {
	return func(ctx context.Context, tx *sql.Tx, c Collection, doc Document, stamp string) (string, error) {
		id := doc.ID()
		if id == "" {
			if upsert {
				return s.insert(ctx, tx, c, doc, stamp)
			}
			return "", ErrMissingID
		}

		current, err := s.load(ctx, tx, c, id)
		if err != nil {
			return "", err
		}
		if current == nil {
			if upsert {
				return s.insert(ctx, tx, c, doc, stamp)
			}
			return "", fmt.Errorf("%s: %w", id, ErrNotFound)
		}

		for k, v := range doc.Clone() {
			if k == FieldCreatedAt {
				continue
			}
			current[k] = v
		}
		current[FieldUpdatedAt] = stamp

		data, err := json.Marshal(current)
		if err != nil {
			return "", fmt.Errorf("marshal document: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET data = ?, updated_at = ?
			WHERE collection = ? AND id = ?
		`, string(data), stamp, string(c), id); err != nil {
			return "", fmt.Errorf("update %s: %w", id, err)
		}
		return id, nil
	}
}

// ── Reads ──────────────────────────────────────────────────────────────────

// FindOne implements DocumentStore.
func (s *SQLiteStore) FindOne(ctx context.Context, c Collection, id string, projection Projection) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &StoreError{Op: "find_one", Collection: c, Err: ErrStoreClosed}
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey(c, id)); ok {
			if doc, ok := cached.(Document); ok {
				s.logger.Debug("cache hit", slog.String("collection", string(c)), slog.String("id", id))
				return projection.Apply(doc.Clone()), nil
			}
		}
	}

	doc, err := s.load(ctx, s.db, c, id)
	if err != nil {
		return nil, &StoreError{Op: "find_one", Collection: c, Err: err}
	}
	if doc == nil {
		return nil, nil
	}
	if s.cache != nil {
		s.cache.SetDefault(cacheKey(c, id), doc.Clone())
	}
	return projection.Apply(doc), nil
}

// Find implements DocumentStore.
func (s *SQLiteStore) Find(ctx context.Context, c Collection, query Query, projection Projection) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &StoreError{Op: "find", Collection: c, Err: ErrStoreClosed}
	}

	q, err := query.normalize()
	if err != nil {
		return nil, &StoreError{Op: "find", Collection: c, Err: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM documents
		WHERE collection = ?
		ORDER BY created_at, seq
	`, string(c))
	if err != nil {
		return nil, &StoreError{Op: "find", Collection: c, Err: fmt.Errorf("query: %w", err)}
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, &StoreError{Op: "find", Collection: c, Err: fmt.Errorf("scan: %w", err)}
		}
		var doc Document
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, &StoreError{Op: "find", Collection: c, Err: fmt.Errorf("unmarshal: %w", err)}
		}
		ok, err := q.Match(doc)
		if err != nil {
			return nil, &StoreError{Op: "find", Collection: c, Err: err}
		}
		if ok {
			docs = append(docs, projection.Apply(doc))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "find", Collection: c, Err: fmt.Errorf("iterate: %w", err)}
	}
	return docs, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// load reads one document, returning nil when it doesn't exist.
func (s *SQLiteStore) load(ctx context.Context, q queryer, c Collection, id string) (Document, error) {
	var data string
	err := q.QueryRowContext(ctx, `
		SELECT data FROM documents WHERE collection = ? AND id = ?
	`, string(c), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", id, err)
	}
	return doc, nil
}

// ── Lifecycle ──────────────────────────────────────────────────────────────

// Close implements DocumentStore. Closing twice is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.cache != nil {
		s.cache.Flush()
	}
	return s.db.Close()
}

func (s *SQLiteStore) forget(c Collection, id string) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(c, id))
	}
}

func cacheKey(c Collection, id string) string {
	return string(c) + "/" + id
}

var _ DocumentStore = (*SQLiteStore)(nil)
