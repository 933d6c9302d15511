// Package registry persists uploaded requirement documents and completed
// analysis reports in SQLite, so web shells can re-serve results without
// re-running the analysis.
package registry

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrReportNotFound = errors.New("report not found")
)

// Upload is a stored requirement document. Content is only populated by
// GetUpload; listings carry metadata alone.
type Upload struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Content   []byte `json:"-"`
	CreatedAt int64  `json:"created_at"`
}

// StoredReport is the persisted result of one analysis job.
type StoredReport struct {
	ID        string `json:"id"`
	UploadID  string `json:"upload_id"`
	JobID     string `json:"job_id"`
	CreatedAt int64  `json:"created_at"`
}

// Store wraps the SQLite database holding uploads and reports.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// NewStore runs the embedded schema against db and returns the store.
func NewStore(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// SaveUpload stores a requirement document and returns its metadata.
func (s *Store) SaveUpload(ctx context.Context, filename string, content []byte) (*Upload, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("upload %q is empty", filename)
	}

	up := &Upload{
		ID:        uuid.New().String(),
		Filename:  filename,
		SizeBytes: int64(len(content)),
		Content:   content,
		CreatedAt: time.Now().Unix(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (id, filename, size_bytes, content, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		up.ID, up.Filename, up.SizeBytes, up.Content, up.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}

	s.logger.Info("stored upload",
		logging.Field{Key: "upload_id", Value: up.ID},
		logging.Field{Key: "filename", Value: filename},
		logging.Field{Key: "size_bytes", Value: up.SizeBytes})
	return up, nil
}

// GetUpload returns one upload including its content.
func (s *Store) GetUpload(ctx context.Context, id string) (*Upload, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, size_bytes, content, created_at
         FROM uploads WHERE id = ? LIMIT 1`, id)

	var up Upload
	if err := row.Scan(&up.ID, &up.Filename, &up.SizeBytes, &up.Content, &up.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &up, nil
}

// ListUploads returns upload metadata, newest first.
func (s *Store) ListUploads(ctx context.Context) ([]Upload, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, size_bytes, created_at
         FROM uploads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Upload
	for rows.Next() {
		var up Upload
		if err := rows.Scan(&up.ID, &up.Filename, &up.SizeBytes, &up.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

// DeleteUpload removes an upload and, by cascade, its reports.
func (s *Store) DeleteUpload(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUploadNotFound
	}
	return nil
}

// SaveReport persists the report produced by one analysis job.
func (s *Store) SaveReport(ctx context.Context, uploadID, jobID string, rep *model.Report) (*StoredReport, error) {
	if rep == nil {
		return nil, fmt.Errorf("report is nil")
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}

	sr := &StoredReport{
		ID:        uuid.New().String(),
		UploadID:  uploadID,
		JobID:     jobID,
		CreatedAt: time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, upload_id, job_id, report_json, created_at)
         VALUES (?, ?, ?, ?, ?)`,
		sr.ID, sr.UploadID, sr.JobID, string(payload), sr.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}

	s.logger.Info("stored report",
		logging.Field{Key: "upload_id", Value: uploadID},
		logging.Field{Key: "job_id", Value: jobID})
	return sr, nil
}

// GetReportByJob loads the report persisted for a job id.
func (s *Store) GetReportByJob(ctx context.Context, jobID string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT report_json FROM reports WHERE job_id = ? LIMIT 1`, jobID)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	var rep model.Report
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return nil, fmt.Errorf("deserialize report for job %s: %w", jobID, err)
	}
	return &rep, nil
}

// ListReports returns report metadata for one upload, newest first.
func (s *Store) ListReports(ctx context.Context, uploadID string) ([]StoredReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, upload_id, job_id, created_at
         FROM reports WHERE upload_id = ? ORDER BY created_at DESC, id`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredReport
	for rows.Next() {
		var sr StoredReport
		if err := rows.Scan(&sr.ID, &sr.UploadID, &sr.JobID, &sr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
