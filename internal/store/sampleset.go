package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/variables"
)

// sampleSetRepo implements SampleSetRepo over database/sql.
type sampleSetRepo struct {
	db *sql.DB
}

func (r *sampleSetRepo) Save(ctx context.Context, templateName string, samples []variables.Sample) (string, error) {
	data, err := question.EncodeSamples(samples)
	if err != nil {
		return "", fmt.Errorf("save sample set: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sample_sets (id, template_name, samples, count, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, templateName, string(data), len(samples), time.Now().UTC().UnixNano())
	if err != nil {
		return "", fmt.Errorf("save sample set: %w", err)
	}
	return id, nil
}

func (r *sampleSetRepo) Latest(ctx context.Context, templateName string) (*SampleSet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, template_name, samples, created_at FROM sample_sets
		WHERE template_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, templateName)
	set, err := scanSampleSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sample set for %q: %w", templateName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query latest sample set: %w", err)
	}
	return set, nil
}

func (r *sampleSetRepo) Get(ctx context.Context, id string) (*SampleSet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, template_name, samples, created_at FROM sample_sets WHERE id = ?`, id)
	set, err := scanSampleSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sample set %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get sample set %s: %w", id, err)
	}
	return set, nil
}

func (r *sampleSetRepo) Prune(ctx context.Context, templateName string, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM sample_sets
		WHERE template_name = ? AND id NOT IN (
			SELECT id FROM sample_sets
			WHERE template_name = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)`, templateName, templateName, max(keep, 0))
	if err != nil {
		return fmt.Errorf("prune sample sets: %w", err)
	}
	return nil
}

func scanSampleSet(s scanner) (*SampleSet, error) {
	var (
		set     SampleSet
		data    string
		created int64
	)
	if err := s.Scan(&set.ID, &set.TemplateName, &data, &created); err != nil {
		return nil, err
	}
	samples, err := question.DecodeSamples([]byte(data))
	if err != nil {
		return nil, err
	}
	set.Samples = samples
	set.CreatedAt = time.Unix(0, created).UTC()
	return &set, nil
}
