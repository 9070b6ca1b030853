package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"mlprep/internal/config"
	apperrors "mlprep/internal/errors"
	"mlprep/pkg/contracts/domain"
)

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    project      TEXT NOT NULL,
    status       TEXT NOT NULL,
    input_path   TEXT,
    output_dir   TEXT,
    format       TEXT,
    seed         INTEGER,
    started_at   TEXT NOT NULL,
    completed_at TEXT,
    error        TEXT,
    steps        TEXT,
    summary      TEXT,
    artifacts    TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_project_started ON runs(project, started_at);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

const selectColumns = `id, project, status, input_path, output_dir, format, seed,
    started_at, completed_at, error, steps, summary, artifacts`

// Store is the sqlite run log with a read-through LRU cache.
type Store struct {
	db     *sql.DB
	cache  *lru.Cache[string, domain.RunRecord]
	logger *slog.Logger
}

// Open creates or opens the run database at cfg.Path.
func Open(cfg config.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, apperrors.NewConfigError("store path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, apperrors.NewStorageError("create store directory", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.NewStorageError("open run database", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("migrate run database", err)
	}

	size := cfg.CacheSize
	if size < 1 {
		size = 1
	}
	cache, err := lru.New[string, domain.RunRecord](size)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create run cache: %w", err)
	}

	s := &Store{
		db:     db,
		cache:  cache,
		logger: logger.With(slog.String("component", "store")),
	}
	s.logger.Info("store_opened", slog.String("path", cfg.Path), slog.Int("cache_size", size))
	return s, nil
}

// SaveRun inserts or replaces a run record.
func (s *Store) SaveRun(ctx context.Context, rec domain.RunRecord) error {
	if rec.ID == "" || rec.Project == "" {
		return apperrors.NewAppValidationError("run id and project are required")
	}

	steps, err := marshalJSON(rec.Steps)
	if err != nil {
		return err
	}
	summary, err := marshalJSON(rec.Summary)
	if err != nil {
		return err
	}
	artifacts, err := marshalJSON(rec.Artifacts)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO runs (`+selectColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Project, string(rec.Status), rec.InputPath, rec.OutputDir, string(rec.Format), rec.Seed,
		formatTime(rec.StartedAt), formatTime(rec.CompletedAt), rec.Error, steps, summary, artifacts,
	)
	if err != nil {
		return apperrors.NewStorageError("save run", err).WithContext("run_id", rec.ID)
	}

	s.cache.Add(rec.ID, rec)
	s.logger.DebugContext(ctx, "run_saved",
		slog.String("run_id", rec.ID),
		slog.String("project", rec.Project),
		slog.String("status", string(rec.Status)))
	return nil
}

// GetRun returns the run with the given id, or a NOT_FOUND AppError.
func (s *Store) GetRun(ctx context.Context, id string) (domain.RunRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, apperrors.NewNotFoundError("run " + id)
	}
	if err != nil {
		return domain.RunRecord{}, apperrors.NewStorageError("load run", err).WithContext("run_id", id)
	}

	s.cache.Add(id, rec)
	return rec, nil
}

// ListRuns returns runs newest first, optionally restricted to one project.
func (s *Store) ListRuns(ctx context.Context, project string, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + selectColumns + ` FROM runs`
	args := []interface{}{}
	if project != "" {
		query += ` WHERE project = ?`
		args = append(args, project)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	defer rows.Close()

	runs := []domain.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("scan run", err)
		}
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	return runs, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (domain.RunRecord, error) {
	var (
		rec                          domain.RunRecord
		status, format               string
		inputPath, outputDir, errMsg sql.NullString
		startedAt, completedAt       sql.NullString
		steps, summary, artifacts    sql.NullString
		seed                         sql.NullInt64
	)
	if err := row.Scan(&rec.ID, &rec.Project, &status, &inputPath, &outputDir, &format, &seed,
		&startedAt, &completedAt, &errMsg, &steps, &summary, &artifacts); err != nil {
		return rec, err
	}

	rec.Status = domain.RunStatus(status)
	rec.Format = domain.ExportFormat(format)
	rec.InputPath = inputPath.String
	rec.OutputDir = outputDir.String
	rec.Error = errMsg.String
	rec.Seed = seed.Int64

	var err error
	if rec.StartedAt, err = parseTime(startedAt.String); err != nil {
		return rec, err
	}
	if rec.CompletedAt, err = parseTime(completedAt.String); err != nil {
		return rec, err
	}
	if err := unmarshalJSON(steps, &rec.Steps); err != nil {
		return rec, err
	}
	if err := unmarshalJSON(summary, &rec.Summary); err != nil {
		return rec, err
	}
	if err := unmarshalJSON(artifacts, &rec.Artifacts); err != nil {
		return rec, err
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.NewParsingError("encode run field", err)
	}
	return string(data), nil
}

func unmarshalJSON(s sql.NullString, dest interface{}) error {
	if !s.Valid || s.String == "" || s.String == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), dest); err != nil {
		return fmt.Errorf("decode run field: %w", err)
	}
	return nil
}
