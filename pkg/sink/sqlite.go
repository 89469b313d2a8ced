package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formengine/pkg/session"
)

// timeLayout has fixed width so submitted_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite keeps records in a submissions table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database at path. ":memory:" opens a private
// in-memory database.
func NewSQLite(path string) (*SQLite, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sink: create db dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sink: open db: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sink: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS submissions (
		id           TEXT PRIMARY KEY,
		schema_id    TEXT NOT NULL,
		generation   INTEGER NOT NULL,
		submitted_at TEXT NOT NULL,
		data         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_submissions_schema ON submissions(schema_id, submitted_at DESC);
	`)
	return err
}

// Store implements Sink.
func (s *SQLite) Store(ctx context.Context, artifact session.Artifact) (Record, error) {
	record := newRecord(ctx, artifact)
	data, err := json.Marshal(record.Data)
	if err != nil {
		return Record{}, fmt.Errorf("sink: encode data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, schema_id, generation, submitted_at, data) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.SchemaID, int64(record.Generation), record.SubmittedAt.Format(timeLayout), string(data))
	if err != nil {
		return Record{}, fmt.Errorf("sink: insert submission: %w", err)
	}
	return record, nil
}

// Get returns the record stored under id.
func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, schema_id, generation, submitted_at, data FROM submissions WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return record, err
}

// List returns records newest first.
func (s *SQLite) List(ctx context.Context, params ListParams) ([]Record, error) {
	query := `SELECT id, schema_id, generation, submitted_at, data FROM submissions`
	var args []any
	if params.SchemaID != "" {
		query += ` WHERE schema_id = ?`
		args = append(args, params.SchemaID)
	}
	query += ` ORDER BY submitted_at DESC, id DESC`
	if params.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, params.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sink: list submissions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		record      Record
		generation  int64
		submittedAt string
		data        string
	)
	if err := row.Scan(&record.ID, &record.SchemaID, &generation, &submittedAt, &data); err != nil {
		return Record{}, err
	}
	record.Generation = uint64(generation)

	parsed, err := time.Parse(timeLayout, submittedAt)
	if err != nil {
		return Record{}, fmt.Errorf("sink: record %s: parse submitted_at: %w", record.ID, err)
	}
	record.SubmittedAt = parsed
	if err := json.Unmarshal([]byte(data), &record.Data); err != nil {
		return Record{}, fmt.Errorf("sink: record %s: decode data: %w", record.ID, err)
	}
	return record, nil
}
