// internal/app/features/members/import.go
package members

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/store/accounts"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/csvutil"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	regsvc "github.com/dalemusser/eventhub/internal/app/system/registration"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type importRejected struct {
	Error string             `json:"error"`
	Rows  []csvutil.RowError `json:"rows"`
}

// HandleImport handles POST /members/{orgID}/import.
//
// The body is either a multipart form with a "file" part or a raw CSV. Every
// row is run through the organization's form; if any row fails, all problems
// are reported and nothing is written.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		apierrors.Error(w, http.StatusNotFound, "Organization not found.")
		return
	}

	src, closeSrc, err := uploadBody(w, r)
	if err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Attach a CSV file in the \"file\" field.")
		return
	}
	defer closeSrc()

	shortCtx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	org, err := h.Orgs.GetByID(shortCtx, orgID)
	cancel()
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotFound) {
			apierrors.Error(w, http.StatusNotFound, "Organization not found.")
			return
		}
		h.Log.Error("members import: load org failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not import members.")
		return
	}

	scan, err := csvutil.PreScanPropertiesCSV(src, org.UserProperties)
	if err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Could not read the CSV: "+err.Error())
		return
	}
	if scan.HasErrors() {
		apierrors.JSON(w, http.StatusUnprocessableEntity, importRejected{Error: scan.Summary(), Rows: scan.Errors})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	rows, problems, err := h.prepareImport(ctx, org.UserProperties, scan.Rows)
	if err != nil {
		h.Log.Error("members import: lookup users failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not import members.")
		return
	}
	if len(problems) > 0 {
		rej := csvutil.ScanResult{Errors: problems}
		apierrors.JSON(w, http.StatusUnprocessableEntity, importRejected{Error: rej.Summary(), Rows: problems})
		return
	}

	res, err := h.Accounts.Import(ctx, orgID, rows)
	if err != nil {
		h.Log.Error("members import: write failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not import members.")
		return
	}

	h.AuditLog.MembersImported(ctx, r, actorID(r), orgID, res.Created, res.Updated)
	apierrors.JSON(w, http.StatusOK, res)
}

// prepareImport validates each scanned row against the schema and turns it
// into an accounts.ImportRow. Rows for new accounts also need a document
// number long enough to serve as the password.
func (h *Handler) prepareImport(ctx context.Context, schema []models.PropertySchema, scanned []csvutil.PropertyRow) ([]accounts.ImportRow, []csvutil.RowError, error) {
	var problems []csvutil.RowError
	out := make([]accounts.ImportRow, 0, len(scanned))
	lines := make([]int, 0, len(scanned))
	idFields := make([]string, 0, len(scanned))
	seen := make(map[string]int, len(scanned))

	for _, row := range scanned {
		email := normalize.Email(row.Email)
		if first, dup := seen[email]; dup {
			problems = append(problems, csvutil.RowError{
				Line: row.Line, Field: csvutil.EmailColumn,
				Reason: "duplicate email (first seen on line " + itoa(first) + ")",
			})
			continue
		}
		seen[email] = row.Line

		form := formengine.NewEdit(schema, h.Conv, row.Values)
		for _, fe := range form.Validate() {
			problems = append(problems, csvutil.RowError{Line: row.Line, Field: fe.Field, Reason: fe.Message})
		}
		idField, _ := form.FieldOfKind(formengine.KindID)

		out = append(out, accounts.ImportRow{
			Email:      email,
			Password:   form.IDValue(),
			Names:      form.NamesValue(),
			Phone:      form.PhoneValue(),
			Properties: form.Payload(),
		})
		lines = append(lines, row.Line)
		idFields = append(idFields, idField)
	}

	emails := make([]string, 0, len(out))
	for _, row := range out {
		emails = append(emails, row.Email)
	}
	existing, err := h.Users.GetByEmails(ctx, emails)
	if err != nil {
		return nil, nil, err
	}
	for i, row := range out {
		if _, ok := existing[row.Email]; ok {
			continue
		}
		if len(strings.TrimSpace(row.Password)) < regsvc.MinPasswordLength {
			problems = append(problems, csvutil.RowError{
				Line: lines[i], Field: idFields[i], Reason: regsvc.Message(regsvc.ErrWeakPassword),
			})
		}
	}
	sortRowErrors(problems)
	return out, problems, nil
}

// uploadBody returns the CSV stream of r, capped at csvutil.MaxUploadSize.
func uploadBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, func() {}, nil
	}
	if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
		return nil, nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}
