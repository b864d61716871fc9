// Package intake checks uploaded document sets before a claim moves on to
// processing.
package intake

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// bytesPerPage is the size of one estimated page
const bytesPerPage = 200 << 10

var (
	// ErrMissingRequired is returned when a required document type is absent
	ErrMissingRequired = errors.New("missing required document")

	// ErrInvalidDocument is returned for a malformed descriptor
	ErrInvalidDocument = errors.New("invalid document")
)

// Intake validates document descriptors
type Intake struct {
	maxBytes int64
}

// New creates an intake that rejects files larger than maxBytes (0 = no limit)
func New(maxBytes int64) *Intake {
	return &Intake{maxBytes: maxBytes}
}

// EstimatePages derives a page count from a file size: one page per
// 200 KiB, never less than one.
func EstimatePages(size int64) int {
	if size <= 0 {
		return 1
	}
	pages := int((size + bytesPerPage - 1) / bytesPerPage)
	if pages < 1 {
		return 1
	}
	return pages
}

// Describe builds a descriptor for an uploaded file
func (in *Intake) Describe(docType model.DocumentType, filename string, size int64) (model.Document, error) {
	name := strings.TrimSpace(filename)
	if name != "" {
		name = filepath.Base(name)
	}
	doc := model.Document{
		Type:      docType,
		File:      name,
		PageCount: EstimatePages(size),
		Size:      size,
	}
	if err := in.check(doc); err != nil {
		return model.Document{}, err
	}
	return doc, nil
}

// Check validates a full document set. It returns the documents in upload
// order, one per type.
func (in *Intake) Check(docs []model.Document) ([]model.Document, error) {
	byType := make(map[model.DocumentType]model.Document, len(docs))
	for _, d := range docs {
		if err := in.check(d); err != nil {
			return nil, err
		}
		if _, dup := byType[d.Type]; dup {
			return nil, fmt.Errorf("%w: more than one %s", ErrInvalidDocument, d.Type.Title())
		}
		byType[d.Type] = d
	}

	out := make([]model.Document, 0, len(byType))
	for _, t := range model.DocumentTypes {
		if d, ok := byType[t]; ok {
			out = append(out, d)
		}
	}

	if missing := Missing(out); len(missing) > 0 {
		titles := make([]string, len(missing))
		for i, t := range missing {
			titles[i] = t.Title()
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(titles, ", "))
	}
	return out, nil
}

// Missing lists the required document types absent from docs
func Missing(docs []model.Document) []model.DocumentType {
	var out []model.DocumentType
	for _, t := range model.DocumentTypes {
		if !t.Required() {
			continue
		}
		if _, ok := model.FindDocument(docs, t); !ok {
			out = append(out, t)
		}
	}
	return out
}

func (in *Intake) check(d model.Document) error {
	if err := ValidateStruct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, FormatValidationErrors(err))
	}
	if in.maxBytes > 0 && d.Size > in.maxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidDocument, d.File, in.maxBytes)
	}
	return nil
}
