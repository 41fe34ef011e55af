package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/abhisek/quizmaker/internal/variables"
)

// FormatVersion is the template export format written by this version.
const FormatVersion = "v1.0.0"

// ErrUnsupportedVersion is returned when a document declares a format
// newer than this version understands.
var ErrUnsupportedVersion = errors.New("unsupported document format version")

// Document is a template export: its variables, question text and
// answer settings.
type Document struct {
	Variables     *variables.Set `json:"variables"`
	Template      string         `json:"template"`
	TemplateData  Spec           `json:"template_data"`
	FormatVersion string         `json:"format_version,omitempty"`
}

// NewDocument returns an empty document with no variables.
func NewDocument() *Document {
	return &Document{Variables: variables.NewSet(), FormatVersion: FormatVersion}
}

// DecodeDocument validates data against DocumentSchema, checks its format
// version and decodes it.
func DecodeDocument(data []byte) (*Document, error) {
	if err := validateSchema(DocumentSchema, data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := checkFormatVersion(doc.FormatVersion); err != nil {
		return nil, err
	}
	if doc.Variables == nil {
		doc.Variables = variables.NewSet()
	}
	return doc, nil
}

// EncodeDocument writes doc as indented JSON. A missing format version is
// filled in with FormatVersion.
func EncodeDocument(doc *Document) ([]byte, error) {
	out := *doc
	if out.FormatVersion == "" {
		out.FormatVersion = FormatVersion
	}
	if out.Variables == nil {
		out.Variables = variables.NewSet()
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// checkFormatVersion accepts an empty version (files written before
// versioning) and any version with the same major as FormatVersion.
func checkFormatVersion(v string) error {
	if v == "" {
		return nil
	}
	canon := v
	if !strings.HasPrefix(canon, "v") {
		canon = "v" + canon
	}
	if !semver.IsValid(canon) {
		return fmt.Errorf("invalid format_version %q", v)
	}
	if semver.Compare(semver.Major(canon), semver.Major(FormatVersion)) > 0 {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedVersion, v, semver.Major(FormatVersion))
	}
	return nil
}
