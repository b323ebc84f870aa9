// internal/app/system/csvutil/export.go
package csvutil

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/domain/models"
)

// MemberExportRow is one member in an export.
type MemberExportRow struct {
	Email      string
	Properties map[string]any
}

// formulaLead holds the leading characters spreadsheets read as the start
// of a formula.
const formulaLead = "=+-@\t\r"

// WriteMembersCSV writes a header of EmailColumn plus every property name
// in render order, then one line per member. The output is accepted back by
// PreScanPropertiesCSV. An email-type property is folded into the email
// column. Cells that a spreadsheet would evaluate as a formula are written
// with a leading apostrophe; the importer strips it again.
func WriteMembersCSV(w io.Writer, schema []models.PropertySchema, rows []MemberExportRow) error {
	fields := make([]models.PropertySchema, 0, len(schema))
	for _, f := range formengine.SortFields(schema) {
		if f.Type == models.FieldEmail {
			continue
		}
		fields = append(fields, f)
	}

	cw := csv.NewWriter(w)
	header := make([]string, 0, len(fields)+1)
	header = append(header, EmailColumn)
	for _, f := range fields {
		header = append(header, f.Name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, row := range rows {
		rec[0] = escapeCell(row.Email)
		for i, f := range fields {
			rec[i+1] = escapeCell(cellString(row.Properties[f.Name]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellString(v any) string {
	switch t := formengine.Normalize(v).(type) {
	case bool:
		return strconv.FormatBool(t)
	case []string:
		return strings.Join(t, ListSep)
	case string:
		return t
	default:
		return ""
	}
}

func escapeCell(s string) string {
	if s != "" && strings.ContainsRune(formulaLead, rune(s[0])) {
		return "'" + s
	}
	return s
}

// unescapeCell reverses escapeCell.
func unescapeCell(s string) string {
	if len(s) > 1 && s[0] == '\'' && strings.ContainsRune(formulaLead, rune(s[1])) {
		return s[1:]
	}
	return s
}
