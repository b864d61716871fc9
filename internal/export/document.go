// Package export turns a submitted decision into a paginated summary
// document and renders it as Markdown, plain text or JSON.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
)

// ErrNoDecision is returned when there is nothing to export
var ErrNoDecision = errors.New("no submitted decision to export")

const (
	title            = "CLAIM ADJUDICATION REPORT"
	subtitle         = "Official Claims Processing Summary"
	processingMethod = "AI-Powered Adjudication with Human Oversight"
	confidential     = "CONFIDENTIAL - For Authorized Use Only"
)

// Options controls branding and pagination
type Options struct {
	Brand         string
	Currency      string
	FirstPageRows int
	RowsPerPage   int
	Note          string // optional narrative note
	Now           func() time.Time
}

// OptionsFromConfig builds Options from the export config section
func OptionsFromConfig(cfg model.ExportConfig) Options {
	return Options{
		Brand:         cfg.Brand,
		Currency:      cfg.Currency,
		FirstPageRows: cfg.FirstPageRows,
		RowsPerPage:   cfg.RowsPerPage,
	}
}

// Row is one line of the item breakdown
type Row struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Claimed     int64  `json:"claimed"`
	Approved    int64  `json:"approved"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

// Summary holds the blocks printed on the first page
type Summary struct {
	ReferenceID      string    `json:"referenceId"`
	Status           string    `json:"status"`
	ApprovedAmount   int64     `json:"approvedAmount"`
	TotalClaimed     int64     `json:"totalClaimed"`
	ApprovalRate     string    `json:"approvalRate"`
	ApprovedCount    int       `json:"approvedCount"`
	PartialCount     int       `json:"partialCount"`
	RejectedCount    int       `json:"rejectedCount"`
	PatientName      string    `json:"patientName"`
	PatientAge       int       `json:"patientAge"`
	PolicyID         string    `json:"policyId"`
	ProcessedOn      time.Time `json:"processedOn"`
	ProcessingMethod string    `json:"processingMethod"`
}

// Page is one page of the document. Only the first page carries the summary.
type Page struct {
	Number     int   `json:"number"`
	Total      int   `json:"total"`
	HasSummary bool  `json:"hasSummary"`
	Rows       []Row `json:"rows"`
}

// Label returns the page footer label
func (p Page) Label() string {
	return fmt.Sprintf("Page %d of %d", p.Number, p.Total)
}

// Document is the export-ready content of a decision
type Document struct {
	Brand        string    `json:"brand"`
	Title        string    `json:"title"`
	Subtitle     string    `json:"subtitle"`
	Currency     string    `json:"currency"`
	GeneratedAt  time.Time `json:"generatedAt"`
	Summary      Summary   `json:"summary"`
	Pages        []Page    `json:"pages"`
	Note         string    `json:"note,omitempty"`
	Notices      []string  `json:"notices"`
	Footer       []string  `json:"footer"`
	Confidential string    `json:"confidential"`
}

// Build lays out the summary document for a decision
func Build(d *model.FinalDecision, opts Options) (*Document, error) {
	if d == nil {
		return nil, ErrNoDecision
	}
	if opts.Brand == "" {
		opts.Brand = "ClaimAdjudicate.ai"
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	rows := make([]Row, len(d.Items))
	for i, item := range d.Items {
		rows[i] = Row{
			Index:       i + 1,
			Description: item.Description,
			Category:    item.Category,
			Claimed:     item.ClaimedAmount,
			Approved:    item.ApprovedAmount,
			Status:      reconcile.Classify(item.ApprovedAmount, item.ClaimedAmount).Label(),
			Reason:      item.Reason,
		}
	}

	doc := &Document{
		Brand:       opts.Brand,
		Title:       title,
		Subtitle:    subtitle,
		Currency:    opts.Currency,
		GeneratedAt: now(),
		Summary: Summary{
			ReferenceID:      d.ReferenceID,
			Status:           "APPROVED",
			ApprovedAmount:   d.TotalApproved,
			TotalClaimed:     d.TotalClaimed,
			ApprovalRate:     model.FormatRate(d.ApprovalRate()),
			ApprovedCount:    d.ApprovedCount,
			PartialCount:     d.PartialCount,
			RejectedCount:    d.RejectedCount,
			PatientName:      d.Patient.Name,
			PatientAge:       d.Patient.Age,
			PolicyID:         d.Patient.PolicyID,
			ProcessedOn:      d.SubmittedAt,
			ProcessingMethod: processingMethod,
		},
		Pages: paginate(rows, opts.FirstPageRows, opts.RowsPerPage),
		Note:  opts.Note,
		Notices: []string{
			"This document serves as the official record of claim adjudication.",
			"All amounts are subject to policy terms and conditions.",
			"This claim has been processed in compliance with HIPAA regulations and maintains a complete audit trail.",
			"The adjudication was performed using AI-powered analysis with human verification.",
			fmt.Sprintf("For queries, contact claims@%s (Ref: %s)", strings.ToLower(opts.Brand), d.ReferenceID),
		},
		Footer: []string{
			"This is a computer-generated document and does not require a physical signature.",
			fmt.Sprintf("Powered by %s - Transforming Healthcare Claims with Agentic AI", opts.Brand),
		},
		Confidential: confidential,
	}
	return doc, nil
}

// Money formats an amount with the document currency: "INR 24,500"
func (doc *Document) Money(v int64) string {
	return doc.Currency + " " + humanize.Comma(v)
}

// paginate puts the first firstRows rows on page one and perPage rows on
// every following page. There is always at least one page.
func paginate(rows []Row, firstRows, perPage int) []Page {
	if firstRows <= 0 {
		firstRows = 8
	}
	if perPage <= 0 {
		perPage = 25
	}

	first := min(firstRows, len(rows))
	pages := []Page{{HasSummary: true, Rows: rows[:first]}}
	for rest := rows[first:]; len(rest) > 0; {
		n := min(perPage, len(rest))
		pages = append(pages, Page{Rows: rest[:n]})
		rest = rest[n:]
	}

	for i := range pages {
		pages[i].Number = i + 1
		pages[i].Total = len(pages)
	}
	return pages
}
