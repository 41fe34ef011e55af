package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// uploadRepo implements UploadRepo over database/sql.
type uploadRepo struct {
	db *sql.DB
}

func (r *uploadRepo) Append(ctx context.Context, ev *UploadEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	errs := ev.Errors
	if errs == nil {
		errs = []string{}
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal upload errors: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO upload_events (template_name, bank_id, success, failed, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.TemplateName, ev.BankID, ev.Success, ev.Failed, string(data), ev.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("append upload event: %w", err)
	}
	if ev.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("append upload event: %w", err)
	}
	return nil
}

func (r *uploadRepo) List(ctx context.Context, limit int) ([]UploadEvent, error) {
	query := `SELECT id, template_name, bank_id, success, failed, errors, created_at
		FROM upload_events ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list upload events: %w", err)
	}
	defer rows.Close()

	var out []UploadEvent
	for rows.Next() {
		var (
			ev      UploadEvent
			errs    string
			created int64
		)
		if err := rows.Scan(&ev.ID, &ev.TemplateName, &ev.BankID, &ev.Success, &ev.Failed, &errs, &created); err != nil {
			return nil, fmt.Errorf("scan upload event: %w", err)
		}
		if err := json.Unmarshal([]byte(errs), &ev.Errors); err != nil {
			return nil, fmt.Errorf("unmarshal upload errors: %w", err)
		}
		ev.Timestamp = time.Unix(0, created).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}
