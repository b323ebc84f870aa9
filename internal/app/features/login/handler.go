// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The email address users type to log in

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgBadCredentials = "Invalid email or password."

type Handler struct {
	Users      *userstore.Store
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limits     *ratelimit.Pair
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, limits *ratelimit.Pair, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limits:     limits,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apierrors.Decode(r, &req); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	loginID := normalize.Email(req.Email)
	if loginID == "" || req.Password == "" {
		apierrors.Fields(w, http.StatusBadRequest, "Email and password are required.", missing(loginID, req.Password))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limits != nil && !h.Limits.Allow(ratelimit.ClientIP(r), loginID) {
		h.Log.Warn("login rate limited", zap.String("login_id", loginID), zap.String("ip", ratelimit.ClientIP(r)))
		h.AuditLog.LoginFailedRateLimit(ctx, r, loginID)
		apierrors.Error(w, http.StatusTooManyRequests, "Too many login attempts. Please wait and try again.")
		return
	}

	u, err := h.Users.GetByEmail(ctx, loginID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.AuditLog.LoginFailedUserNotFound(ctx, r, loginID)
			apierrors.Error(w, http.StatusUnauthorized, msgBadCredentials)
			return
		}
		h.Log.Error("login: user lookup failed", zap.Error(err), zap.String("login_id", loginID))
		apierrors.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	if u.Status == models.StatusDisabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, loginID)
		apierrors.Error(w, http.StatusForbidden, "This account is disabled.")
		return
	}
	if !userstore.CheckPassword(u, req.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, loginID)
		apierrors.Error(w, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	su := auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.Names,
		LoginID: u.Email,
		Role:    u.Role,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", loginID))
		apierrors.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	if h.Limits != nil {
		h.Limits.Reset(loginID)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, nil, loginID)

	apierrors.JSON(w, http.StatusOK, loginResponse{ID: su.ID, Name: su.Name, Email: su.LoginID, Role: su.Role})
}

// ServeMe handles GET /login/me and returns the signed-in user.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierrors.Error(w, http.StatusUnauthorized, "Not signed in.")
		return
	}
	apierrors.JSON(w, http.StatusOK, loginResponse{ID: u.ID, Name: u.Name, Email: u.LoginID, Role: u.Role})
}

func missing(email, password string) []apierrors.FieldError {
	var out []apierrors.FieldError
	if email == "" {
		out = append(out, apierrors.FieldError{Field: "email", Message: "Email is required."})
	}
	if password == "" {
		out = append(out, apierrors.FieldError{Field: "password", Message: "Password is required."})
	}
	return out
}
