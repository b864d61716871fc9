package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

// Format is an export output format
type Format string

const (
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// ParseFormat maps a query value or file extension onto a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "md", "markdown", "":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// ContentType returns the HTTP content type for the format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Filename returns the download file name for a reference id
func (f Format) Filename(referenceID string) string {
	return fmt.Sprintf("claim-decision-%s.%s", referenceID, f)
}

// Write renders doc in the given format
func Write(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatText:
		return WriteText(w, doc)
	default:
		return WriteMarkdown(w, doc)
	}
}

// WriteJSON renders doc as indented JSON
func WriteJSON(w io.Writer, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// layout abstracts the differences between Markdown and plain text
type layout struct {
	heading  func(level int, s string) string
	bold     func(s string) string
	cell     func(s string) string
	newTable func(w io.Writer) *tablewriter.Table
	rule     string
}

var markdownCell = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

var markdownLayout = layout{
	heading: func(level int, s string) string {
		return strings.Repeat("#", level) + " " + s
	},
	bold: func(s string) string { return "**" + s + "**" },
	cell: markdownCell.Replace,
	newTable: func(w io.Writer) *tablewriter.Table {
		t := newTable(w)
		t.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		t.SetCenterSeparator("|")
		return t
	},
	rule: "---",
}

var textLayout = layout{
	heading: func(level int, s string) string {
		if level > 2 {
			return s + "\n" + strings.Repeat("-", len([]rune(s)))
		}
		return s + "\n" + strings.Repeat("=", len([]rune(s)))
	},
	bold:     func(s string) string { return s },
	cell:     func(s string) string { return s },
	newTable: newTable,
	rule:     strings.Repeat("-", 72),
}

func newTable(w io.Writer) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// WriteMarkdown renders doc as Markdown, one section per page
func WriteMarkdown(w io.Writer, doc *Document) error {
	return writeDocument(w, doc, markdownLayout)
}

// WriteText renders doc as plain text with ASCII tables
func WriteText(w io.Writer, doc *Document) error {
	return writeDocument(w, doc, textLayout)
}

func writeDocument(out io.Writer, doc *Document, l layout) error {
	w := bufio.NewWriter(out)
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	for _, page := range doc.Pages {
		if page.HasSummary {
			writeSummary(w, doc, l, line)
		}

		if len(page.Rows) > 0 {
			heading := "Detailed Item Breakdown"
			if !page.HasSummary {
				heading += " (continued)"
			}
			line("%s\n", l.heading(3, heading))
			t := l.newTable(w)
			t.SetHeader([]string{"#", "Item", "Category", "Claimed", "Approved", "Status", "Reason"})
			for _, r := range page.Rows {
				t.Append([]string{
					strconv.Itoa(r.Index),
					l.cell(r.Description),
					l.cell(r.Category),
					doc.Money(r.Claimed),
					doc.Money(r.Approved),
					r.Status,
					l.cell(r.Reason),
				})
			}
			t.Render()
			line("")
		}

		if page.Number == page.Total {
			writeClosing(doc, l, line)
		}

		line("%s", l.rule)
		line("%s | %s", page.Label(), doc.Confidential)
		if page.Number < page.Total {
			line("")
		}
	}

	return w.Flush()
}

func writeSummary(w io.Writer, doc *Document, l layout, line func(string, ...interface{})) {
	s := doc.Summary

	line("%s\n", l.heading(1, doc.Brand))
	line("%s\n", l.heading(2, doc.Title))
	line("%s\n", doc.Subtitle)
	line("Generated: %s", doc.GeneratedAt.Format("02 Jan 2006, 15:04"))
	line("Reference ID: %s\n", s.ReferenceID)
	line("%s\n", l.bold("Status: "+s.Status))
	line("%s", l.bold("APPROVED AMOUNT "+doc.Money(s.ApprovedAmount)))
	line("of %s claimed (%s approval rate)\n", doc.Money(s.TotalClaimed), s.ApprovalRate)

	line("%s\n", l.heading(3, "Claim Statistics"))
	stats := l.newTable(w)
	stats.SetHeader([]string{"Approved", "Partial", "Rejected"})
	stats.Append([]string{
		strconv.Itoa(s.ApprovedCount),
		strconv.Itoa(s.PartialCount),
		strconv.Itoa(s.RejectedCount),
	})
	stats.Render()
	line("")

	line("%s\n", l.heading(3, "Patient & Policy Information"))
	info := l.newTable(w)
	info.SetHeader([]string{"Field", "Value"})
	info.AppendBulk([][]string{
		{"Patient Name", l.cell(s.PatientName)},
		{"Patient Age", fmt.Sprintf("%d years", s.PatientAge)},
		{"Policy ID", l.cell(s.PolicyID)},
		{"Processed On", s.ProcessedOn.Format("02 Jan 2006, 15:04 MST")},
		{"Processing Method", s.ProcessingMethod},
	})
	info.Render()
	line("")
}

func writeClosing(doc *Document, l layout, line func(string, ...interface{})) {
	if doc.Note != "" {
		line("%s\n", l.heading(3, "Reviewer Note"))
		line("%s\n", doc.Note)
	}

	line("%s\n", l.heading(3, "Important Information"))
	for _, n := range doc.Notices {
		line("- %s", n)
	}
	line("")
	for _, f := range doc.Footer {
		line("%s", f)
	}
	line("")
}
