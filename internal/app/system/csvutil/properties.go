// internal/app/system/csvutil/properties.go
package csvutil

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// EmailColumn is the header of the account email column. It is always
// accepted, whether or not the schema declares an email property.
const EmailColumn = "email"

// ListSep separates values of a multi-select list cell.
const ListSep = "|"

var (
	// ErrEmpty is returned for an upload with no header row.
	ErrEmpty = errors.New("csv is empty")
	// ErrTooManyRows is returned when the upload exceeds MaxRows.
	ErrTooManyRows = fmt.Errorf("csv has more than %d rows", MaxRows)
)

// PropertyRow is one data row keyed by property name.
type PropertyRow struct {
	Line   int
	Email  string
	Values map[string]any
}

// RowError is one problem found on one line. Line 1 is the header.
type RowError struct {
	Line   int    `json:"line"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d, %s: %s", e.Line, e.Field, e.Reason)
}

// ScanResult is the outcome of PreScanPropertiesCSV.
type ScanResult struct {
	Rows   []PropertyRow
	Errors []RowError
}

// HasErrors reports whether any row was rejected.
func (r ScanResult) HasErrors() bool { return len(r.Errors) > 0 }

// Summary renders the first few errors as one message.
func (r ScanResult) Summary() string {
	if len(r.Errors) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Upload rejected: %d problem(s) found.", len(r.Errors))
	n := len(r.Errors)
	if n > maxReported {
		n = maxReported
	}
	for _, e := range r.Errors[:n] {
		b.WriteString("\n• ")
		b.WriteString(e.String())
	}
	if len(r.Errors) > n {
		fmt.Fprintf(&b, "\n… and %d more", len(r.Errors)-n)
	}
	return b.String()
}

// PreScanPropertiesCSV reads an upload whose header row names schema
// properties (by name or by plain-text label, case and accent
// insensitive). Cells are converted to the stored shape of their field:
// booleans from true/false/yes/si/x/1, lists split on ListSep when the cell
// holds more than one value. Only structural problems are reported here:
// unknown or duplicate columns, ragged rows and missing emails. Field rules
// are left to the form engine. Nothing is written anywhere.
func PreScanPropertiesCSV(r io.Reader, schema []models.PropertySchema) (ScanResult, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return ScanResult{}, ErrEmpty
	}
	if err != nil {
		return ScanResult{}, fmt.Errorf("read header: %w", err)
	}

	var res ScanResult
	cols := mapHeader(header, schema, &res)

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Errors = append(res.Errors, RowError{Line: pe.Line, Reason: pe.Err.Error()})
				continue
			}
			return ScanResult{}, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blankRecord(rec) {
			continue
		}
		if len(res.Rows)+1 > MaxRows {
			return ScanResult{}, ErrTooManyRows
		}
		if len(rec) > len(header) {
			res.Errors = append(res.Errors, RowError{Line: line, Reason: fmt.Sprintf("has %d cells, header has %d", len(rec), len(header))})
			continue
		}

		row := PropertyRow{Line: line, Values: make(map[string]any)}
		for i, cell := range rec {
			c := cols[i]
			if c.email {
				row.Email = strings.TrimSpace(unescapeCell(cell))
			}
			if c.field != nil {
				row.Values[c.field.Name] = cellValue(*c.field, cell)
			}
		}
		if row.Email == "" {
			res.Errors = append(res.Errors, RowError{Line: line, Field: EmailColumn, Reason: "missing email"})
			continue
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

type column struct {
	email bool
	field *models.PropertySchema
}

func mapHeader(header []string, schema []models.PropertySchema, res *ScanResult) []column {
	byKey := make(map[string]*models.PropertySchema, len(schema)*2)
	var emailField *models.PropertySchema
	for i := range schema {
		s := &schema[i]
		if s.Type == models.FieldEmail && emailField == nil {
			emailField = s
		}
		byKey[text.Fold(s.Name)] = s
		if label := text.Fold(htmlsanitize.PlainText(s.Label)); label != "" {
			if _, taken := byKey[label]; !taken {
				byKey[label] = s
			}
		}
	}

	cols := make([]column, len(header))
	seen := make(map[string]bool)
	hasEmail := false
	for i, h := range header {
		key := text.Fold(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		s, ok := byKey[key]
		switch {
		case ok && s == emailField:
			cols[i] = column{email: true, field: s}
		case ok:
			cols[i] = column{field: s}
		case key == EmailColumn || key == "correo":
			cols[i] = column{email: true, field: emailField}
		default:
			res.Errors = append(res.Errors, RowError{Line: 1, Field: h, Reason: "unknown column"})
			continue
		}
		name := EmailColumn
		if cols[i].field != nil {
			name = cols[i].field.Name
		}
		if seen[name] {
			res.Errors = append(res.Errors, RowError{Line: 1, Field: h, Reason: "duplicate column"})
			cols[i] = column{}
			continue
		}
		seen[name] = true
		if cols[i].email {
			hasEmail = true
		}
	}
	if !hasEmail {
		res.Errors = append(res.Errors, RowError{Line: 1, Field: EmailColumn, Reason: "missing email column"})
	}
	return cols
}

// cellValue converts a raw cell to the stored shape of f.
func cellValue(f models.PropertySchema, cell string) any {
	cell = strings.TrimSpace(unescapeCell(cell))
	switch f.Type {
	case models.FieldBoolean:
		switch text.Fold(cell) {
		case "true", "yes", "si", "x", "1":
			return true
		default:
			return false
		}
	case models.FieldList:
		if strings.Contains(cell, ListSep) {
			var out []string
			for _, p := range strings.Split(cell, ListSep) {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}
	return cell
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// stripBOM drops a leading UTF-8 byte order mark.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
