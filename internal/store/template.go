package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmaker/internal/question"
)

// templateRepo implements TemplateRepo over database/sql.
type templateRepo struct {
	db *sql.DB
}

func (r *templateRepo) Save(ctx context.Context, t *Template) error {
	if t.Name == "" {
		return fmt.Errorf("save template: name is empty")
	}
	if t.Document == nil {
		return fmt.Errorf("save template %q: document is nil", t.Name)
	}
	doc, err := question.EncodeDocument(t.Document)
	if err != nil {
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}

	now := time.Now().UTC()
	var id string
	var created int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO templates (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
		RETURNING id, created_at`,
		uuid.NewString(), t.Name, string(doc), now.UnixMilli(), now.UnixMilli(),
	).Scan(&id, &created)
	if err != nil {
		return fmt.Errorf("save template %q: %w", t.Name, err)
	}

	t.ID = id
	t.CreatedAt = time.UnixMilli(created).UTC()
	t.UpdatedAt = time.UnixMilli(now.UnixMilli()).UTC()
	return nil
}

func (r *templateRepo) Get(ctx context.Context, name string) (*Template, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM templates WHERE name = ?`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	return t, nil
}

func (r *templateRepo) List(ctx context.Context) ([]*Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, document, created_at, updated_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (r *templateRepo) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(s scanner) (*Template, error) {
	var (
		t                Template
		doc              string
		created, updated int64
	)
	if err := s.Scan(&t.ID, &t.Name, &doc, &created, &updated); err != nil {
		return nil, err
	}
	d, err := question.DecodeDocument([]byte(doc))
	if err != nil {
		return nil, err
	}
	t.Document = d
	t.CreatedAt = time.UnixMilli(created).UTC()
	t.UpdatedAt = time.UnixMilli(updated).UTC()
	return &t, nil
}
