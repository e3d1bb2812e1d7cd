package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
)

func init() {
	// modernc's driver is not in sqlx's default bind table.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const jobsSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	task_id           TEXT PRIMARY KEY,
	filename          TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	image_path        TEXT NOT NULL,
	status            TEXT NOT NULL,
	result            TEXT,
	error             TEXT NOT NULL DEFAULT '',
	created_at        BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at);
`

// SQLJobStore persists job records through database/sql. It runs on
// Postgres in deployments and on the embedded pure-Go sqlite driver for
// dev setups and tests; queries are written once with ? placeholders and
// rebound per driver.
type SQLJobStore struct {
	db *sqlx.DB
}

// NewSQLJobStore connects using the given driver ("postgres" or "sqlite")
// and DSN, verifies the connection and applies the schema.
func NewSQLJobStore(driver, dsn string) (*SQLJobStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if driver == "sqlite" {
		// The file-backed driver serializes writes itself; extra
		// connections just produce SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, jobsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLJobStore{db: db}, nil
}

type jobRow struct {
	TaskID           string         `db:"task_id"`
	Filename         string         `db:"filename"`
	OriginalFilename string         `db:"original_filename"`
	ImagePath        string         `db:"image_path"`
	Status           string         `db:"status"`
	Result           sql.NullString `db:"result"`
	Error            string         `db:"error"`
	CreatedAt        int64          `db:"created_at"`
}

func (s *SQLJobStore) Create(ctx context.Context, job *core.Job) error {
	query := s.db.Rebind(`
		INSERT INTO jobs (task_id, filename, original_filename, image_path, status, result, error, created_at)
		VALUES (?, ?, ?, ?, ?, NULL, '', ?)`)

	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.Filename, job.OriginalFilename, job.ImagePath,
		string(job.Status), job.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateJob
		}
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func (s *SQLJobStore) UpdateResult(ctx context.Context, id string, status core.JobStatus, result *core.InspectionResult, errMsg string) error {
	var resultJSON sql.NullString
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	// Single-row overwrite: status and payload land atomically, and a
	// row that does not exist matches nothing without raising.
	query := s.db.Rebind(`UPDATE jobs SET status = ?, result = ?, error = ? WHERE task_id = ?`)
	if _, err := s.db.ExecContext(ctx, query, string(status), resultJSON, errMsg, id); err != nil {
		return fmt.Errorf("failed to update job %s: %w", id, err)
	}
	return nil
}

func (s *SQLJobStore) Get(ctx context.Context, id string) (*core.Job, error) {
	var row jobRow
	query := s.db.Rebind(`SELECT * FROM jobs WHERE task_id = ?`)
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}
	return rowToJob(&row)
}

func (s *SQLJobStore) List(ctx context.Context, filter core.JobFilter) ([]*core.Job, error) {
	filter = filter.Normalize()

	var rows []jobRow
	query := s.db.Rebind(`SELECT * FROM jobs ORDER BY created_at DESC, task_id DESC LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &rows, query, filter.Limit, filter.Offset); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*core.Job, 0, len(rows))
	for i := range rows {
		job, err := rowToJob(&rows[i])
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *SQLJobStore) Close() error {
	return s.db.Close()
}

func rowToJob(row *jobRow) (*core.Job, error) {
	job := &core.Job{
		ID:               row.TaskID,
		Filename:         row.Filename,
		OriginalFilename: row.OriginalFilename,
		ImagePath:        row.ImagePath,
		Status:           core.JobStatus(row.Status),
		Error:            row.Error,
		CreatedAt:        time.Unix(0, row.CreatedAt).UTC(),
	}
	if row.Result.Valid {
		var result core.InspectionResult
		if err := json.Unmarshal([]byte(row.Result.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode result for job %s: %w", row.TaskID, err)
		}
		job.Result = &result
	}
	return job, nil
}

func isUniqueViolation(err error) bool {
	// Portable check: lib/pq reports "duplicate key", modernc reports
	// "UNIQUE constraint failed". Matching on text avoids depending on
	// both drivers' error types here.
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
