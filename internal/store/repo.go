package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizmaker/internal/question"
	"github.com/abhisek/quizmaker/internal/variables"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Template is a named, stored template document.
type Template struct {
	ID        string
	Name      string
	Document  *question.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateRepo manages stored templates.
type TemplateRepo interface {
	// Save inserts the template or replaces the document of the template
	// with the same name. ID and timestamps are filled in on return.
	Save(ctx context.Context, t *Template) error

	// Get returns the template called name, or ErrNotFound.
	Get(ctx context.Context, name string) (*Template, error)

	// List returns all templates ordered by name. Documents are loaded.
	List(ctx context.Context) ([]*Template, error)

	// Delete removes the template called name, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
}

// SampleSet is a stored batch of samples generated for a template.
type SampleSet struct {
	ID           string
	TemplateName string
	Samples      []variables.Sample
	CreatedAt    time.Time
}

// SampleSetRepo manages stored sample sets.
type SampleSetRepo interface {
	// Save stores samples for templateName and returns the new set's ID.
	Save(ctx context.Context, templateName string, samples []variables.Sample) (string, error)

	// Latest returns the most recent set for templateName, or ErrNotFound.
	Latest(ctx context.Context, templateName string) (*SampleSet, error)

	// Get returns the set with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*SampleSet, error)

	// Prune deletes all but the keep most recent sets for templateName.
	Prune(ctx context.Context, templateName string, keep int) error
}

// UploadEvent records the outcome of one LMS upload run.
type UploadEvent struct {
	ID           int64
	TemplateName string
	BankID       int64
	Success      int
	Failed       int
	Errors       []string
	Timestamp    time.Time
}

// UploadRepo provides append access to upload history.
type UploadRepo interface {
	// Append records an upload. A zero Timestamp is set to now.
	Append(ctx context.Context, ev *UploadEvent) error

	// List returns the most recent events first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]UploadEvent, error)
}
