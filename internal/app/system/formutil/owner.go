package formutil

import (
	"net/http"

	"github.com/google/uuid"
)

// OwnerCookie identifies an anonymous browser to the form registry.
const OwnerCookie = "eventhub_form_owner"

// BrowserOwner returns the form owner key of an anonymous visitor, issuing
// a new cookie on first contact.
func BrowserOwner(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(OwnerCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return "browser:" + c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     OwnerCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return "browser:" + id
}

// ExistingOwner returns the owner key carried by r without issuing one.
func ExistingOwner(r *http.Request) string {
	c, err := r.Cookie(OwnerCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return "browser:" + c.Value
}

// UserOwner is the owner key of a signed-in user.
func UserOwner(userID string) string {
	return "user:" + userID
}
