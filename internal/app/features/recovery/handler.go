// internal/app/features/recovery/handler.go
package recovery

// Flow: start (code sent) -> verify (code exchanged for a reset token) ->
// reset (token + new password). The challenge id returned by start names
// the attempt in every later call; DELETE /recovery/{rid} abandons it.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	recoverystore "github.com/dalemusser/eventhub/internal/app/store/recovery"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/normalize"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	regsvc "github.com/dalemusser/eventhub/internal/app/system/registration"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgSent        = "If the account exists, a recovery code is on its way."
	msgInvalidCode = "This code is invalid or has expired."
)

// Handler runs password recovery.
type Handler struct {
	Users      *userstore.Store
	Challenges *recoverystore.Store
	Email      notify.EmailSender
	SMS        notify.SMSSender
	Limits     *ratelimit.Pair
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	SiteName string
	// DialCode prefixes stored phone numbers that lack one, e.g. "+57".
	DialCode string
}

func NewHandler(db *mongo.Database, expiry time.Duration, email notify.EmailSender, sms notify.SMSSender,
	limits *ratelimit.Pair, audit *auditlog.Logger, siteName, dialCode string, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Challenges: recoverystore.New(db, expiry),
		Email:      email,
		SMS:        sms,
		Limits:     limits,
		AuditLog:   audit,
		Log:        logger,
		SiteName:   siteName,
		DialCode:   dialCode,
	}
}

type startRequest struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Channel string `json:"channel"`
}

// startResponse has the same shape whether or not an account matched.
type startResponse struct {
	RecoveryID string `json:"recovery_id"`
	Channel    string `json:"channel"`
	ExpiresIn  int    `json:"expires_in_seconds"`
	Message    string `json:"message"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	ResetToken string `json:"reset_token"`
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// HandleStart handles POST /recovery/start.
//
// The response does not reveal whether an account matched: unknown
// identifiers get a well-formed but unusable recovery id, and neither case
// echoes where the code was sent.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := apierrors.Decode(r, &req); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel == "" {
		channel = recoverystore.ChannelEmail
	}
	if channel != recoverystore.ChannelEmail && channel != recoverystore.ChannelSMS {
		apierrors.Fields(w, http.StatusBadRequest, recoverystore.ErrBadChannel.Error(),
			[]apierrors.FieldError{{Field: "channel", Message: recoverystore.ErrBadChannel.Error()}})
		return
	}
	email, phone := normalize.Email(req.Email), normalize.Phone(req.Phone)
	target := email
	if target == "" {
		target = phone
	}
	if target == "" {
		apierrors.Fields(w, http.StatusBadRequest, "Enter your email or phone number.",
			[]apierrors.FieldError{{Field: "email", Message: "Enter your email or phone number."}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if h.Limits != nil && !h.Limits.Allow(ratelimit.ClientIP(r), target) {
		h.Log.Warn("recovery rate limited", zap.String("target", notify.Mask(target)), zap.String("ip", ratelimit.ClientIP(r)))
		apierrors.Error(w, http.StatusTooManyRequests, "Too many recovery requests. Please wait and try again.")
		return
	}

	decoy := startResponse{
		RecoveryID: uuid.NewString(),
		Channel:    channel,
		ExpiresIn:  int(h.Challenges.Expiry().Seconds()),
		Message:    msgSent,
	}

	u, err := h.lookup(ctx, email, phone)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			apierrors.JSON(w, http.StatusAccepted, decoy)
			return
		}
		h.Log.Error("recovery: user lookup failed", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "Could not start recovery. Please try again.")
		return
	}
	if u.Status == models.StatusDisabled {
		apierrors.JSON(w, http.StatusAccepted, decoy)
		return
	}

	dest, err := h.destination(u, channel)
	if err != nil {
		h.Log.Info("recovery: no destination on channel", zap.String("user_id", u.ID.Hex()), zap.String("channel", channel))
		apierrors.JSON(w, http.StatusAccepted, decoy)
		return
	}

	issued, err := h.Challenges.Create(ctx, u.ID, channel, dest)
	if err != nil {
		h.Log.Error("recovery: create challenge failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not start recovery. Please try again.")
		return
	}
	if err := h.send(ctx, channel, dest, issued.Code); err != nil {
		h.Log.Error("recovery: send code failed", zap.Error(err), zap.String("channel", channel))
		h.AuditLog.RecoveryCodeFailed(ctx, r, u.ID, "delivery failed")
		_ = h.Challenges.Delete(ctx, issued.ID)
		apierrors.Error(w, http.StatusBadGateway, "We could not send the code. Please try again later.")
		return
	}
	h.AuditLog.RecoveryCodeSent(ctx, r, u.ID, channel, 1)

	apierrors.JSON(w, http.StatusAccepted, startResponse{
		RecoveryID: issued.ID,
		Channel:    channel,
		ExpiresIn:  decoy.ExpiresIn,
		Message:    msgSent,
	})
}

// HandleResend handles POST /recovery/{rid}/resend.
func (h *Handler) HandleResend(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	pending, err := h.Challenges.Get(ctx, rid)
	if err == nil && h.Limits != nil && !h.Limits.Allow(ratelimit.ClientIP(r), pending.UserID.Hex()) {
		apierrors.Error(w, http.StatusTooManyRequests, "Too many recovery requests. Please wait and try again.")
		return
	}

	var issued *recoverystore.Issued
	var ch *recoverystore.Challenge
	if err == nil {
		issued, ch, err = h.Challenges.Resend(ctx, rid)
	}
	switch {
	case err == nil:
	case errors.Is(err, recoverystore.ErrNotFound):
		// Decoy ids land here too; answer as if a code went out.
		apierrors.JSON(w, http.StatusAccepted, map[string]string{"message": msgSent})
		return
	case errors.Is(err, recoverystore.ErrTooManyResends):
		apierrors.Error(w, http.StatusTooManyRequests, "No more codes can be sent for this request. Start again.")
		return
	default:
		h.Log.Error("recovery: resend failed", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "Could not resend the code.")
		return
	}

	if err := h.send(ctx, ch.Channel, ch.Destination, issued.Code); err != nil {
		h.Log.Error("recovery: resend delivery failed", zap.Error(err), zap.String("channel", ch.Channel))
		h.AuditLog.RecoveryCodeFailed(ctx, r, ch.UserID, "delivery failed")
		apierrors.Error(w, http.StatusBadGateway, "We could not send the code. Please try again later.")
		return
	}
	h.AuditLog.RecoveryCodeSent(ctx, r, ch.UserID, ch.Channel, issued.ResendCount+1)
	apierrors.JSON(w, http.StatusAccepted, map[string]string{"message": msgSent})
}

// HandleVerify handles POST /recovery/{rid}/verify.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	var req verifyRequest
	if err := apierrors.Decode(r, &req); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	code := strings.TrimSpace(req.Code)
	if len(code) != recoverystore.CodeLength {
		apierrors.Fields(w, http.StatusBadRequest, msgInvalidCode, []apierrors.FieldError{{Field: "code", Message: msgInvalidCode}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Challenges.Get(ctx, rid)
	if err != nil {
		h.writeChallengeError(w, err)
		return
	}
	token, err := h.Challenges.VerifyCode(ctx, rid, code)
	if err != nil {
		if errors.Is(err, recoverystore.ErrInvalidCode) || errors.Is(err, recoverystore.ErrTooManyAttempts) {
			h.AuditLog.RecoveryCodeFailed(ctx, r, ch.UserID, err.Error())
		}
		h.writeChallengeError(w, err)
		return
	}
	h.AuditLog.RecoveryVerified(ctx, r, ch.UserID)
	apierrors.JSON(w, http.StatusOK, verifyResponse{ResetToken: token})
}

// HandleReset handles POST /recovery/{rid}/reset.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	rid := chi.URLParam(r, "rid")
	var req resetRequest
	if err := apierrors.Decode(r, &req); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if len(req.Password) < regsvc.MinPasswordLength {
		msg := fmt.Sprintf("The password must have at least %d characters.", regsvc.MinPasswordLength)
		apierrors.Fields(w, http.StatusUnprocessableEntity, msg, []apierrors.FieldError{{Field: "password", Message: msg}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Challenges.Consume(ctx, rid, req.Token)
	if err != nil {
		h.writeChallengeError(w, err)
		return
	}
	if err := h.Users.SetPassword(ctx, ch.UserID, req.Password); err != nil {
		h.Log.Error("recovery: set password failed", zap.Error(err), zap.String("user_id", ch.UserID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not update the password. Start again.")
		return
	}
	h.AuditLog.PasswordReset(ctx, r, ch.UserID)
	apierrors.JSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

// HandleAbort handles DELETE /recovery/{rid}.
func (h *Handler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Challenges.Delete(ctx, chi.URLParam(r, "rid")); err != nil {
		h.Log.Error("recovery: delete challenge failed", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "Could not cancel the request.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookup(ctx context.Context, email, phone string) (*models.User, error) {
	if email != "" {
		return h.Users.GetByEmail(ctx, email)
	}
	return h.Users.GetByPhone(ctx, phone)
}

func (h *Handler) destination(u *models.User, channel string) (string, error) {
	if channel == recoverystore.ChannelEmail {
		if u.Email == "" {
			return "", errors.New("no email on record")
		}
		return u.Email, nil
	}
	if u.Phone == "" {
		return "", errors.New("no phone on record")
	}
	return notify.E164(h.DialCode, u.Phone)
}

func (h *Handler) send(ctx context.Context, channel, dest, code string) error {
	data := notify.RecoveryData{
		SiteName:  h.SiteName,
		Code:      code,
		ExpiresIn: fmt.Sprintf("%d minutes", int(h.Challenges.Expiry().Minutes())),
	}
	if channel == recoverystore.ChannelSMS {
		msg := notify.RecoverySMS(data)
		msg.To = dest
		return h.SMS.SendSMS(ctx, msg)
	}
	msg := notify.RecoveryEmail(data)
	msg.To = dest
	return h.Email.SendEmail(ctx, msg)
}

func (h *Handler) writeChallengeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recoverystore.ErrNotFound), errors.Is(err, recoverystore.ErrInvalidCode):
		apierrors.Fields(w, http.StatusBadRequest, msgInvalidCode, []apierrors.FieldError{{Field: "code", Message: msgInvalidCode}})
	case errors.Is(err, recoverystore.ErrTooManyAttempts):
		apierrors.Error(w, http.StatusTooManyRequests, "Too many attempts. Start again.")
	case errors.Is(err, recoverystore.ErrNotVerified):
		apierrors.Error(w, http.StatusConflict, "Verify the code before choosing a new password.")
	default:
		h.Log.Error("recovery: challenge error", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
