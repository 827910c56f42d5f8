// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"taxform-scan/internal/resilience"
)

// Config selects and tunes the database
type Config struct {
	Type        string // sqlite or postgres
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// SQLStore implements Store on database/sql
type SQLStore struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect string
	retry   resilience.RetryConfig
	logger  *slog.Logger
	now     func() time.Time
}

// Open connects, creates the tables and returns a ready store
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SQLStore{
		dialect: cfg.Type,
		retry:   resilience.StorageRetryConfig(),
		logger:  logger,
		now:     time.Now,
	}

	switch cfg.Type {
	case DialectSQLite, "":
		s.dialect = DialectSQLite
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "taxforms.db"
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)
		s.db = db
	case DialectPostgres:
		pool, err := openPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s.pool = pool
		s.db = stdlib.OpenDBFromPool(pool)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("storage ready", "dialect", s.dialect)
	return s, nil
}

func openPool(ctx context.Context, cfg Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "taxform-scan"

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool
func (s *SQLStore) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return resilience.RetryWithResult(ctx, s.retry, func(ctx context.Context) (sql.Result, error) {
		res, err := s.db.ExecContext(ctx, rebind(s.dialect, query), args...)
		if err != nil {
			return nil, resilience.ClassifyError(err)
		}
		return res, nil
	})
}

func (s *SQLStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// SaveForm inserts the record, assigning an id when it has none
func (s *SQLStore) SaveForm(ctx context.Context, rec *FormRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	data, err := marshalJSON(rec.StructuredData)
	if err != nil {
		return "", err
	}
	errs, err := marshalJSON(rec.Errors)
	if err != nil {
		return "", err
	}
	warns, err := marshalJSON(rec.Warnings)
	if err != nil {
		return "", err
	}

	now := s.stamp()
	_, err = s.exec(ctx, `INSERT INTO tax_forms (
		form_id, form_type, taxpayer_name, ssn, filing_status, tax_year, wages,
		federal_tax_withheld, address, city, state, zip_code, status, confidence,
		source_path, processed_by, structured_data, validation_errors,
		validation_warnings, raw_text, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FormType, rec.TaxpayerName, rec.SSN, rec.FilingStatus, rec.TaxYear,
		nullFloat(rec.Wages), nullFloat(rec.FederalTaxWithheld), rec.Address, rec.City,
		rec.State, rec.ZipCode, rec.Status, rec.Confidence, rec.SourcePath, rec.ProcessedBy,
		data, errs, warns, rec.RawText, now, now)
	if err != nil {
		s.logger.Error("failed to insert form", "form_id", rec.ID, "error", err)
		return "", fmt.Errorf("insert form: %w", err)
	}
	s.logger.Debug("form stored", "form_id", rec.ID, "form_type", rec.FormType)
	return rec.ID, nil
}

const selectForm = `SELECT form_id, form_type, taxpayer_name, ssn, filing_status, tax_year,
	wages, federal_tax_withheld, address, city, state, zip_code, status, confidence,
	source_path, processed_by, structured_data, validation_errors, validation_warnings,
	raw_text, created_at, updated_at FROM tax_forms`

type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (*FormRecord, error) {
	var (
		rec                                                     FormRecord
		name, ssn, filing, addr, city, state, zip, src, by, raw sql.NullString
		data, errs, warns                                       sql.NullString
		taxYear                                                 sql.NullInt64
		wages, withheld                                         sql.NullFloat64
		created, updated                                        string
	)
	err := row.Scan(&rec.ID, &rec.FormType, &name, &ssn, &filing, &taxYear, &wages, &withheld,
		&addr, &city, &state, &zip, &rec.Status, &rec.Confidence, &src, &by, &data, &errs,
		&warns, &raw, &created, &updated)
	if err != nil {
		return nil, err
	}

	rec.TaxpayerName, rec.SSN, rec.FilingStatus = name.String, ssn.String, filing.String
	rec.Address, rec.City, rec.State, rec.ZipCode = addr.String, city.String, state.String, zip.String
	rec.SourcePath, rec.ProcessedBy, rec.RawText = src.String, by.String, raw.String
	rec.TaxYear = int(taxYear.Int64)
	if wages.Valid {
		rec.Wages = &wages.Float64
	}
	if withheld.Valid {
		rec.FederalTaxWithheld = &withheld.Float64
	}
	if err := unmarshalJSON(data, &rec.StructuredData); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(errs, &rec.Errors); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(warns, &rec.Warnings); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &rec, nil
}

// GetForm returns ErrNotFound for unknown ids
func (s *SQLStore) GetForm(ctx context.Context, id string) (*FormRecord, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.dialect, selectForm+` WHERE form_id = ?`), id)
	rec, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get form: %w", err)
	}
	return rec, nil
}

// ListForms returns the newest forms first
func (s *SQLStore) ListForms(ctx context.Context, limit int) ([]FormRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		rebind(s.dialect, selectForm+` ORDER BY created_at DESC, form_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	var out []FormRecord
	for rows.Next() {
		rec, err := scanForm(rows)
		if err != nil {
			return nil, fmt.Errorf("list forms: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// UpdateStatus changes the processing status of a stored form
func (s *SQLStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.exec(ctx, `UPDATE tax_forms SET status = ?, updated_at = ? WHERE form_id = ?`,
		status, s.stamp(), id)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	return requireRow(res, id)
}

// DeleteForm removes a form and its log entries
func (s *SQLStore) DeleteForm(ctx context.Context, id string) error {
	res, err := s.exec(ctx, `DELETE FROM tax_forms WHERE form_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	if _, err := s.exec(ctx, `DELETE FROM processing_log WHERE form_id = ?`, id); err != nil {
		return fmt.Errorf("delete processing log: %w", err)
	}
	return nil
}

// LogProcessing appends a processing log entry
func (s *SQLStore) LogProcessing(ctx context.Context, formID, status, message string) error {
	_, err := s.exec(ctx,
		`INSERT INTO processing_log (form_id, processing_status, error_message, processed_at) VALUES (?, ?, ?, ?)`,
		formID, status, message, s.stamp())
	if err != nil {
		return fmt.Errorf("log processing: %w", err)
	}
	return nil
}

// ProcessingLog returns the entries for one form, oldest first
func (s *SQLStore) ProcessingLog(ctx context.Context, formID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.dialect,
		`SELECT id, form_id, processing_status, error_message, processed_at
		 FROM processing_log WHERE form_id = ? ORDER BY id`), formID)
	if err != nil {
		return nil, fmt.Errorf("read processing log: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var (
			e       LogEntry
			msg     sql.NullString
			stamped string
		)
		if err := rows.Scan(&e.ID, &e.FormID, &e.Status, &msg, &stamped); err != nil {
			return nil, fmt.Errorf("read processing log: %w", err)
		}
		e.Message = msg.String
		e.ProcessedAt, _ = time.Parse(time.RFC3339Nano, stamped)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Statistics aggregates counts and confidence over all forms
func (s *SQLStore) Statistics(ctx context.Context) (*Statistics, error) {
	st := &Statistics{ByStatus: map[string]int{}, ByFormType: map[string]int{}}

	var (
		avg  sql.NullFloat64
		last sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(confidence), MAX(created_at) FROM tax_forms`).Scan(&st.TotalForms, &avg, &last)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	st.AverageConfidence = avg.Float64
	if last.Valid {
		if t, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			st.LastProcessed = &t
		}
	}

	if err := s.countBy(ctx, "status", st.ByStatus); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "form_type", st.ByFormType); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLStore) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM tax_forms GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("statistics by %s: %w", column, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("statistics by %s: %w", column, err)
		}
		into[key] = n
	}
	return rows.Err()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func marshalJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode column: %w", err)
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalJSON(col sql.NullString, into any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), into); err != nil {
		return fmt.Errorf("decode column: %w", err)
	}
	return nil
}
