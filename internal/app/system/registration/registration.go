// Package registration submits validated forms to account persistence.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinPasswordLength is the shortest password the account service accepts.
const MinPasswordLength = 6

var (
	ErrEmailInUse   = errors.New("email already in use")
	ErrWeakPassword = errors.New("password too weak")
	// ErrPersistence wraps every other persister failure.
	ErrPersistence = errors.New("could not save account")
)

// ValidationFailure carries every violation found at submit.
type ValidationFailure struct {
	Errors []formengine.FieldError
}

func (v *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(v.Errors))
}

// CreateOrUpdate is the account write sent on first registration.
// Password is the value of the form's ID/document field.
type CreateOrUpdate struct {
	Email          string
	Password       string
	Names          string
	Phone          string
	Properties     map[string]any
	OrganizationID primitive.ObjectID
	PositionID     string
	RoleID         string
}

// Account identifies the persisted user.
type Account struct {
	UserID  primitive.ObjectID
	Created bool
}

// Persister stores accounts. Implementations return ErrEmailInUse and
// ErrWeakPassword (possibly wrapped) for those conditions.
type Persister interface {
	CreateOrUpdateUser(ctx context.Context, req CreateOrUpdate) (Account, error)
	UpdateProperties(ctx context.Context, orgID, userID primitive.ObjectID, props map[string]any) error
}

// Target is where a submit goes. UserID is used by Update only.
type Target struct {
	OrganizationID primitive.ObjectID
	PositionID     string
	RoleID         string
	UserID         primitive.ObjectID
}

// Service runs submits against a Persister.
type Service struct {
	p Persister
}

func New(p Persister) *Service {
	return &Service{p: p}
}

// Register validates form and creates or updates the account. The form's
// values are left untouched whatever the outcome.
func (s *Service) Register(ctx context.Context, form *formengine.Form, t Target) (Account, error) {
	errs := form.Validate()

	emailField, _ := form.FieldOfKind(formengine.KindEmail)
	email := form.EmailValue()
	if email == "" && !hasField(errs, emailField) {
		errs = append(errs, formengine.FieldError{
			Field:   fieldOr(emailField, "email"),
			Label:   form.Label(emailField),
			Message: formengine.MsgRequired,
		})
	}
	if len(errs) > 0 {
		return Account{}, &ValidationFailure{Errors: errs}
	}

	password := form.IDValue()
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return Account{}, ErrWeakPassword
	}

	acc, err := s.p.CreateOrUpdateUser(ctx, CreateOrUpdate{
		Email:          email,
		Password:       password,
		Names:          form.NamesValue(),
		Phone:          form.PhoneValue(),
		Properties:     form.Payload(),
		OrganizationID: t.OrganizationID,
		PositionID:     t.PositionID,
		RoleID:         t.RoleID,
	})
	if err != nil {
		return Account{}, classify(err)
	}
	return acc, nil
}

// Update validates form and replaces the stored properties of t.UserID.
func (s *Service) Update(ctx context.Context, form *formengine.Form, t Target) error {
	if errs := form.Validate(); len(errs) > 0 {
		return &ValidationFailure{Errors: errs}
	}
	if err := s.p.UpdateProperties(ctx, t.OrganizationID, t.UserID, form.Payload()); err != nil {
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrEmailInUse), errors.Is(err, ErrWeakPassword):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
}

// Message maps a submit error to the text shown to the user.
func Message(err error) string {
	var vf *ValidationFailure
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vf):
		return "Please correct the highlighted fields."
	case errors.Is(err, ErrEmailInUse):
		return "This email is already registered."
	case errors.Is(err, ErrWeakPassword):
		return fmt.Sprintf("The document number must have at least %d characters.", MinPasswordLength)
	default:
		return "We could not save your information. Please try again."
	}
}

func hasField(errs []formengine.FieldError, name string) bool {
	for _, e := range errs {
		if e.Field == name {
			return true
		}
	}
	return false
}

func fieldOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
