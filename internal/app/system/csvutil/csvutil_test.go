package csvutil

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/eventhub/internal/domain/models"
)

func testSchema() []models.PropertySchema {
	return []models.PropertySchema{
		{Name: "correo", Label: "Correo", Type: models.FieldEmail, OrderWeight: 1},
		{Name: "documento", Label: "Número de <b>documento</b>", Type: models.FieldText, OrderWeight: 2},
		{Name: "acepta", Label: "Acepta términos", Type: models.FieldBoolean, OrderWeight: 3},
		{Name: "intereses", Label: "Intereses", Type: models.FieldList, OrderWeight: 4},
	}
}

func TestPreScan_MapsByNameAndLabel(t *testing.T) {
	in := "Correo,NUMERO DE DOCUMENTO,acepta,Intereses\n" +
		"ana@example.com,1020304050,sí,arte|música\n" +
		"luis@example.com,99887766,no,arte\n"

	res, err := PreScanPropertiesCSV(strings.NewReader(in), testSchema())
	if err != nil {
		t.Fatalf("PreScanPropertiesCSV() error = %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(res.Rows))
	}

	r0 := res.Rows[0]
	if r0.Line != 2 || r0.Email != "ana@example.com" {
		t.Errorf("row 0 = line %d email %q", r0.Line, r0.Email)
	}
	want := map[string]any{
		"correo":    "ana@example.com",
		"documento": "1020304050",
		"acepta":    true,
		"intereses": []string{"arte", "música"},
	}
	if !reflect.DeepEqual(r0.Values, want) {
		t.Errorf("row 0 values = %#v, want %#v", r0.Values, want)
	}
	if res.Rows[1].Values["acepta"] != false || res.Rows[1].Values["intereses"] != "arte" {
		t.Errorf("row 1 values = %#v", res.Rows[1].Values)
	}
}

func TestPreScan_StructuralErrors(t *testing.T) {
	in := "email,documento,documento,color\n" +
		",123456\n" +
		"a@b.co,1,2,3,4\n"

	res, err := PreScanPropertiesCSV(strings.NewReader(in), testSchema())
	if err != nil {
		t.Fatalf("PreScanPropertiesCSV() error = %v", err)
	}

	want := []RowError{
		{Line: 1, Field: "documento", Reason: "duplicate column"},
		{Line: 1, Field: "color", Reason: "unknown column"},
		{Line: 2, Field: "email", Reason: "missing email"},
		{Line: 3, Reason: "has 5 cells, header has 4"},
	}
	if !reflect.DeepEqual(res.Errors, want) {
		t.Errorf("errors = %#v\nwant %#v", res.Errors, want)
	}
	if !strings.HasPrefix(res.Summary(), "Upload rejected: 4 problem(s) found.") {
		t.Errorf("Summary() = %q", res.Summary())
	}
}

func TestPreScan_MissingEmailColumn(t *testing.T) {
	res, err := PreScanPropertiesCSV(strings.NewReader("documento\n123456\n"), testSchema()[1:])
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) == 0 || res.Errors[0].Reason != "missing email column" {
		t.Errorf("errors = %v", res.Errors)
	}
}

func TestPreScan_BOMAndBlankLines(t *testing.T) {
	in := "\ufeffemail,documento\n\na@b.co,123456\n,\n"
	res, err := PreScanPropertiesCSV(strings.NewReader(in), testSchema())
	if err != nil {
		t.Fatal(err)
	}
	if res.HasErrors() || len(res.Rows) != 1 {
		t.Fatalf("rows=%d errors=%v", len(res.Rows), res.Errors)
	}
	if res.Rows[0].Values["correo"] != "a@b.co" {
		t.Errorf("email column should also fill the email property: %#v", res.Rows[0].Values)
	}
}

func TestPreScan_Empty(t *testing.T) {
	if _, err := PreScanPropertiesCSV(strings.NewReader(""), testSchema()); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

func TestSummary_Truncates(t *testing.T) {
	var res ScanResult
	for i := 0; i < 8; i++ {
		res.Errors = append(res.Errors, RowError{Line: i + 2, Reason: "bad"})
	}
	s := res.Summary()
	if strings.Count(s, "• ") != maxReported {
		t.Errorf("Summary lists %d rows, want %d", strings.Count(s, "• "), maxReported)
	}
	if !strings.HasSuffix(s, "and 3 more") {
		t.Errorf("Summary() = %q", s)
	}
}

func TestWriteMembersCSV_RoundTrip(t *testing.T) {
	rows := []MemberExportRow{
		{Email: "ana@example.com", Properties: map[string]any{
			"correo": "ana@example.com", "documento": "1020304050", "acepta": true, "intereses": []any{"arte", "cine"},
		}},
		{Email: "luis@example.com", Properties: map[string]any{"documento": "99887766"}},
	}

	var buf bytes.Buffer
	if err := WriteMembersCSV(&buf, testSchema(), rows); err != nil {
		t.Fatalf("WriteMembersCSV() error = %v", err)
	}
	want := "email,documento,acepta,intereses\n" +
		"ana@example.com,1020304050,true,arte|cine\n" +
		"luis@example.com,99887766,,\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}

	res, err := PreScanPropertiesCSV(&buf, testSchema())
	if err != nil || res.HasErrors() {
		t.Fatalf("re-import failed: %v %v", err, res.Errors)
	}
	if got := res.Rows[0].Values["intereses"]; !reflect.DeepEqual(got, []string{"arte", "cine"}) {
		t.Errorf("intereses = %#v", got)
	}
}

func TestWriteMembersCSV_EscapesFormulas(t *testing.T) {
	schema := []models.PropertySchema{
		{Name: "empresa", Type: models.FieldText, OrderWeight: 1},
		{Name: "nota", Type: models.FieldText, OrderWeight: 2},
	}
	rows := []MemberExportRow{
		{Email: "ana@example.com", Properties: map[string]any{"empresa": `=HYPERLINK("http://x")`, "nota": "+1"}},
		{Email: "luis@example.com", Properties: map[string]any{"empresa": "@SUM(A1)", "nota": "-2"}},
		{Email: "eva@example.com", Properties: map[string]any{"empresa": "Acme", "nota": "a=b"}},
	}

	var buf bytes.Buffer
	if err := WriteMembersCSV(&buf, schema, rows); err != nil {
		t.Fatalf("WriteMembersCSV() error = %v", err)
	}
	want := "email,empresa,nota\n" +
		`ana@example.com,"'=HYPERLINK(""http://x"")",'+1` + "\n" +
		"luis@example.com,'@SUM(A1),'-2\n" +
		"eva@example.com,Acme,a=b\n"
	if buf.String() != want {
		t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
	}

	res, err := PreScanPropertiesCSV(&buf, schema)
	if err != nil || res.HasErrors() {
		t.Fatalf("re-import failed: %v %v", err, res.Errors)
	}
	if got := res.Rows[0].Values["empresa"]; got != `=HYPERLINK("http://x")` {
		t.Errorf("empresa = %#v", got)
	}
	if got := res.Rows[1].Values["nota"]; got != "-2" {
		t.Errorf("nota = %#v", got)
	}
}
