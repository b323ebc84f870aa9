// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/dalemusser/eventhub/internal/app/system/formsession"
	"github.com/dalemusser/eventhub/internal/app/system/geo"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/app/system/progresstrack"
	"github.com/dalemusser/eventhub/internal/app/system/ratelimit"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/app/system/workers"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// appState is the process-wide state built in Startup and consumed by
// BuildHandler and Shutdown.
type appState struct {
	conv     formengine.Conventions
	dialCode string
	throttle progresstrack.Throttle

	forms   *formsession.Registry
	sweeper *workers.FormSweeper

	email notify.EmailSender
	sms   notify.SMSSender

	loginLimits    *ratelimit.Pair
	recoveryLimits *ratelimit.Pair
	openLimits     *ratelimit.Limiter
}

var (
	stateMu sync.Mutex
	state   *appState
)

func currentState() (*appState, error) {
	stateMu.Lock()
	defer stateMu.Unlock()
	if state == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	return state, nil
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// the geo dataset, bootstraps the administrator account, builds the message
// senders and starts the form sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := geo.Load(); err != nil {
		logger.Error("geo dataset failed to load", zap.Error(err))
		return err
	}
	special, ok := geo.ResolveCountry(appCfg.SpecialCountry)
	if !ok {
		return fmt.Errorf("special_country %q is not in the geo dataset", appCfg.SpecialCountry)
	}

	if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
		logger.Error("admin bootstrap failed", zap.Error(err))
		return err
	}

	email, sms, err := buildSenders(appCfg, logger)
	if err != nil {
		return err
	}

	conv := formengine.DefaultConventions()
	conv.SpecialCountry = special.Name
	if appCfg.SentinelValue != "" {
		conv.Sentinel = appCfg.SentinelValue
	}

	forms := formsession.NewRegistry(appCfg.FormSessionTTL)
	sweeper := workers.NewFormSweeper("forms", forms, logger, appCfg.FormSweepInterval)
	sweeper.Start()

	stateMu.Lock()
	state = &appState{
		conv:     conv,
		dialCode: geo.PhoneCode(special),
		throttle: progresstrack.Throttle{
			MinInterval: appCfg.ProgressMinInterval,
			MinDelta:    appCfg.ProgressMinDelta,
			CompleteAt:  appCfg.ProgressCompleteAt,
		},
		forms:          forms,
		sweeper:        sweeper,
		email:          email,
		sms:            sms,
		loginLimits:    ratelimit.NewLoginPair(),
		recoveryLimits: ratelimit.NewRecoveryPair(),
		openLimits:     ratelimit.NewFormOpenLimiter(),
	}
	stateMu.Unlock()

	logger.Info("startup complete",
		zap.String("special_country", conv.SpecialCountry),
		zap.String("mail_provider", appCfg.MailProvider),
		zap.String("sms_provider", appCfg.SMSProvider))
	return nil
}

func buildSenders(appCfg AppConfig, logger *zap.Logger) (notify.EmailSender, notify.SMSSender, error) {
	console := notify.Console{Log: logger}

	var email notify.EmailSender = console
	if appCfg.MailProvider == "sendgrid" {
		email = notify.NewSendGrid(appCfg.SendGridAPIKey, appCfg.MailFromName, appCfg.MailFrom, logger)
	}

	var sms notify.SMSSender = console
	if appCfg.SMSProvider == "twilio" {
		tw, err := notify.NewTwilio(appCfg.TwilioAccountSID, appCfg.TwilioAuthToken, appCfg.TwilioSender, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("twilio: %w", err)
		}
		sms = tw
	}
	return email, sms, nil
}

// ensureAdmin makes sure the configured administrator exists. An existing
// account is promoted and keeps its password; a new one needs a password.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	if email == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	users := userstore.New(deps.MongoDatabase)
	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == "admin" && u.Status == models.StatusActive {
			return nil
		}
		if err := users.SetRole(ctx, u.ID, "admin"); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		if err := users.SetStatus(ctx, u.ID, models.StatusActive); err != nil {
			return fmt.Errorf("activate admin: %w", err)
		}
		logger.Info("promoted existing user to admin", zap.String("email", u.Email))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		if password == "" {
			logger.Warn("admin_email set but no account exists and admin_password is empty; skipping",
				zap.String("email", email))
			return nil
		}
		created, err := users.Create(ctx, models.User{Email: email, Role: "admin"}, password)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		logger.Info("created admin user", zap.String("email", created.Email))
		return nil

	default:
		return fmt.Errorf("look up admin: %w", err)
	}
}
