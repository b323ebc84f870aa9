// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings per category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"
	Log = "log"
	Off = "off"
)

// Config picks the destination of each category. Empty means All.
type Config struct {
	Auth         string
	Admin        string
	Registration string
}

// Logger writes audit events to the audit store and/or zap.
// A nil *Logger discards everything.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	for _, s := range []*string{&config.Auth, &config.Admin, &config.Registration} {
		if *s == "" {
			*s = All
		}
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ValidSetting reports whether s is one of all, db, log, off.
func ValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	case audit.CategoryRegistration:
		return l.config.Registration
	default:
		return All
	}
}

// Log records event according to its category's setting.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == Off {
		return
	}
	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

func base(r *http.Request, category, eventType string, success bool) audit.Event {
	return audit.Event{
		Category:  category,
		EventType: eventType,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// oid parses a hex id, returning nil for empty or invalid input.
func oid(hex string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

// --- Authentication ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, orgID *primitive.ObjectID, loginID string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID, e.OrganizationID = &userID, orgID
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, loginID string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = &userID
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, loginID string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedUserDisabled, false)
	e.UserID = &userID
	e.FailureReason = "user disabled"
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, loginID string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"login_id": loginID}
	l.Log(ctx, e)
}

func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, orgID string) {
	e := base(r, audit.CategoryAuth, audit.EventLogout, true)
	e.UserID, e.OrganizationID = oid(userID), oid(orgID)
	l.Log(ctx, e)
}

// RecoveryCodeSent records a recovery code delivered over channel (email or sms).
func (l *Logger) RecoveryCodeSent(ctx context.Context, r *http.Request, userID primitive.ObjectID, channel string, sends int) {
	e := base(r, audit.CategoryAuth, audit.EventRecoveryCodeSent, true)
	e.UserID = &userID
	e.Details = map[string]string{"channel": channel, "sends": strconv.Itoa(sends)}
	l.Log(ctx, e)
}

func (l *Logger) RecoveryCodeFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID, reason string) {
	e := base(r, audit.CategoryAuth, audit.EventRecoveryCodeFailed, false)
	e.UserID = &userID
	e.FailureReason = reason
	l.Log(ctx, e)
}

func (l *Logger) RecoveryVerified(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAuth, audit.EventRecoveryVerified, true)
	e.UserID = &userID
	l.Log(ctx, e)
}

func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAuth, audit.EventPasswordReset, true)
	e.UserID = &userID
	l.Log(ctx, e)
}

// --- Admin ---

// PropertyChanged records a schema edit. eventType is one of the
// audit.EventProperty* constants.
func (l *Logger) PropertyChanged(ctx context.Context, r *http.Request, actorID string, orgID primitive.ObjectID, eventType, name string) {
	e := base(r, audit.CategoryAdmin, eventType, true)
	e.ActorID, e.OrganizationID = oid(actorID), &orgID
	if name != "" {
		e.Details = map[string]string{"property": name}
	}
	l.Log(ctx, e)
}

func (l *Logger) MemberUpdated(ctx context.Context, r *http.Request, actorID string, orgID, userID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventMemberUpdated, true)
	e.ActorID, e.OrganizationID, e.UserID = oid(actorID), &orgID, &userID
	l.Log(ctx, e)
}

func (l *Logger) MembersImported(ctx context.Context, r *http.Request, actorID string, orgID primitive.ObjectID, created, updated int) {
	e := base(r, audit.CategoryAdmin, audit.EventMembersImported, true)
	e.ActorID, e.OrganizationID = oid(actorID), &orgID
	e.Details = map[string]string{"created": strconv.Itoa(created), "updated": strconv.Itoa(updated)}
	l.Log(ctx, e)
}

func (l *Logger) MembersExported(ctx context.Context, r *http.Request, actorID string, orgID primitive.ObjectID, rows int) {
	e := base(r, audit.CategoryAdmin, audit.EventMembersExported, true)
	e.ActorID, e.OrganizationID = oid(actorID), &orgID
	e.Details = map[string]string{"rows": strconv.Itoa(rows)}
	l.Log(ctx, e)
}

// OrganizationChanged records an organization create, rename or status
// change. eventType is audit.EventOrgCreated or audit.EventOrgUpdated.
func (l *Logger) OrganizationChanged(ctx context.Context, r *http.Request, actorID string, orgID primitive.ObjectID, eventType string, details map[string]string) {
	e := base(r, audit.CategoryAdmin, eventType, true)
	e.ActorID, e.OrganizationID = oid(actorID), &orgID
	e.Details = details
	l.Log(ctx, e)
}

// --- Registration ---

func (l *Logger) UserRegistered(ctx context.Context, r *http.Request, userID, orgID primitive.ObjectID, email string) {
	e := base(r, audit.CategoryRegistration, audit.EventUserRegistered, true)
	e.UserID, e.OrganizationID = &userID, &orgID
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

func (l *Logger) RegistrationRejected(ctx context.Context, r *http.Request, orgID primitive.ObjectID, reason string) {
	e := base(r, audit.CategoryRegistration, audit.EventRegistrationRejected, false)
	e.OrganizationID = &orgID
	e.FailureReason = reason
	l.Log(ctx, e)
}
