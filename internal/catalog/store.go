package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"video-server/internal/logging"
	"video-server/internal/metrics"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates that no record matched the given id or file name.
	ErrNotFound = errors.New("video record not found")

	// ErrDuplicate indicates an insert for a file name that is already
	// present in the catalog.
	ErrDuplicate = errors.New("video record already exists")
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Store persists video records in a SQLite database. The unique index on
// file_name gives Insert compare-and-insert semantics: concurrent inserts
// for the same file name cannot both succeed.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the catalog database at dbPath. The parent
// directory must already exist and be writable.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	logging.Info("Catalog database path: %s", dbPath)

	// WAL allows concurrent readers during crawl writes; busy_timeout
	// prevents "database is locked" errors under contention.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	logging.Info("Catalog database initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL UNIQUE,
		source_path TEXT NOT NULL,
		base_name TEXT NOT NULL,
		friendly_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		mime_type TEXT NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '[]',
		subtitles TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_videos_file_name ON videos(file_name);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectColumns = `id, file_name, source_path, base_name, friendly_name, description, mime_type, file_size, tags, subtitles`

// FindByID returns the record with the given id, or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*VideoRecord, error) {
	return s.findBy(ctx, "find_by_id", "id", id)
}

// FindByFileName returns the record with the given file name, or ErrNotFound.
func (s *Store) FindByFileName(ctx context.Context, fileName string) (*VideoRecord, error) {
	return s.findBy(ctx, "find_by_file_name", "file_name", fileName)
}

func (s *Store) findBy(ctx context.Context, op, column, value string) (*VideoRecord, error) {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM videos WHERE %s = ?", selectColumns, column)
	row := s.db.QueryRowContext(queryCtx, query, value)

	rec, err := scanRecord(row)
	s.observe(op, start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s query failed: %w", op, err)
	}
	return rec, nil
}

// Insert persists a new record. It returns ErrDuplicate when a record with
// the same file name already exists; the unique index makes the check-then-
// insert race safe under concurrent crawl workers.
func (s *Store) Insert(ctx context.Context, rec *VideoRecord) error {
	start := time.Now()

	tags, subtitles, err := marshalLists(rec)
	if err != nil {
		return err
	}

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(execCtx, `
		INSERT INTO videos (id, file_name, source_path, base_name, friendly_name, description, mime_type, file_size, tags, subtitles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.SourcePath, rec.BaseName, rec.FriendlyName,
		rec.Description, rec.MimeType, rec.FileSize, tags, subtitles,
	)
	s.observe("insert", start, err)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.FileName)
		}
		return fmt.Errorf("insert failed for %s: %w", rec.FileName, err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing record in a single
// statement, so readers never observe a partially written record. Returns
// ErrNotFound when the id is unknown.
func (s *Store) Update(ctx context.Context, rec *VideoRecord) error {
	start := time.Now()

	tags, subtitles, err := marshalLists(rec)
	if err != nil {
		return err
	}

	execCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := s.db.ExecContext(execCtx, `
		UPDATE videos
		SET source_path = ?, base_name = ?, friendly_name = ?, description = ?,
			mime_type = ?, file_size = ?, tags = ?, subtitles = ?,
			updated_at = strftime('%s', 'now')
		WHERE id = ?`,
		rec.SourcePath, rec.BaseName, rec.FriendlyName, rec.Description,
		rec.MimeType, rec.FileSize, tags, subtitles, rec.ID,
	)
	s.observe("update", start, err)
	if err != nil {
		return fmt.Errorf("update failed for %s: %w", rec.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows for %s: %w", rec.ID, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

// ListAll returns every record in the catalog ordered by file name.
func (s *Store) ListAll(ctx context.Context) ([]VideoRecord, error) {
	start := time.Now()

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM videos ORDER BY file_name COLLATE NOCASE", selectColumns)
	rows, err := s.db.QueryContext(queryCtx, query)
	s.observe("list_all", start, err)
	if err != nil {
		return nil, fmt.Errorf("list query failed: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	records := make([]VideoRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list iteration failed: %w", err)
	}
	return records, nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = "error"
	}
	metrics.StoreQueryTotal.WithLabelValues(op, status).Inc()
	metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func marshalLists(rec *VideoRecord) (tags string, subtitles string, err error) {
	tagsBytes, err := json.Marshal(emptyIfNil(rec.Tags))
	if err != nil {
		return "", "", fmt.Errorf("marshal tags: %w", err)
	}
	subsBytes, err := json.Marshal(emptyIfNil(rec.Subtitles))
	if err != nil {
		return "", "", fmt.Errorf("marshal subtitles: %w", err)
	}
	return string(tagsBytes), string(subsBytes), nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(sc scanner) (*VideoRecord, error) {
	var rec VideoRecord
	var tags, subtitles string

	err := sc.Scan(
		&rec.ID, &rec.FileName, &rec.SourcePath, &rec.BaseName,
		&rec.FriendlyName, &rec.Description, &rec.MimeType, &rec.FileSize,
		&tags, &subtitles,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(subtitles), &rec.Subtitles); err != nil {
		return nil, fmt.Errorf("unmarshal subtitles: %w", err)
	}
	return &rec, nil
}
