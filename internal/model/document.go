package model

// DocumentType identifies one of the supporting documents of a claim
type DocumentType string

const (
	DocPrescription DocumentType = "prescription"
	DocInvoice      DocumentType = "invoice"
	DocLab          DocumentType = "lab"
	DocPolicy       DocumentType = "policy"
)

// DocumentTypes lists every document type in upload order
var DocumentTypes = []DocumentType{DocPrescription, DocInvoice, DocLab, DocPolicy}

// Required reports whether a claim cannot proceed without this document
func (t DocumentType) Required() bool {
	return t != DocLab
}

// Title returns the display title for the document type
func (t DocumentType) Title() string {
	switch t {
	case DocPrescription:
		return "Prescription"
	case DocInvoice:
		return "Invoice / Bill"
	case DocLab:
		return "Lab Report"
	case DocPolicy:
		return "Policy Document"
	default:
		return string(t)
	}
}

// Description returns the helper text shown next to the upload slot
func (t DocumentType) Description() string {
	switch t {
	case DocPrescription:
		return "Doctor's prescription document"
	case DocInvoice:
		return "Hospital bill or invoice"
	case DocLab:
		return "Skip if not applicable"
	case DocPolicy:
		return "Insurance policy document"
	default:
		return ""
	}
}

// ParseDocumentType maps a string onto a known document type
func ParseDocumentType(s string) (DocumentType, bool) {
	for _, t := range DocumentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Document describes one uploaded file. File is an opaque handle; the
// core never reads the content behind it.
type Document struct {
	Type      DocumentType `json:"type" yaml:"type" validate:"required,oneof=prescription invoice lab policy"`
	File      string       `json:"file" yaml:"file" validate:"required"`
	PageCount int          `json:"pageCount" yaml:"page_count" validate:"gte=1"`
	Size      int64        `json:"size,omitempty" yaml:"size,omitempty" validate:"gte=0"`
}

// FindDocument returns the document of the given type, if present
func FindDocument(docs []Document, t DocumentType) (Document, bool) {
	for _, d := range docs {
		if d.Type == t {
			return d, true
		}
	}
	return Document{}, false
}
