// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	auditlogfeature "github.com/dalemusser/eventhub/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/eventhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/eventhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/eventhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/eventhub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/eventhub/internal/app/features/members"
	organizationsfeature "github.com/dalemusser/eventhub/internal/app/features/organizations"
	progressfeature "github.com/dalemusser/eventhub/internal/app/features/progress"
	propertiesfeature "github.com/dalemusser/eventhub/internal/app/features/properties"
	recoveryfeature "github.com/dalemusser/eventhub/internal/app/features/recovery"
	registrationfeature "github.com/dalemusser/eventhub/internal/app/features/registration"
	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. The session middleware runs globally so
// every feature can read the signed-in user; role checks live in each
// feature's Routes.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	st, err := currentState()
	if err != nil {
		return nil, err
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:         appCfg.AuditLogAuth,
		Admin:        appCfg.AuditLogAdmin,
		Registration: appCfg.AuditLogRegistration,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, auditLog, st.loginLimits, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	recoveryHandler := recoveryfeature.NewHandler(db, appCfg.RecoveryCodeExpiry, st.email, st.sms,
		st.recoveryLimits, auditLog, appCfg.SiteName, st.dialCode, logger)
	r.Mount("/recovery", recoveryfeature.Routes(recoveryHandler))

	// Public registration
	registrationHandler := registrationfeature.NewHandler(db, st.forms, st.conv, st.openLimits, auditLog, logger)
	r.Mount("/register", registrationfeature.Routes(registrationHandler))

	// Administration
	orgHandler := organizationsfeature.NewHandler(db, auditLog, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler, sessionMgr))

	propertiesHandler := propertiesfeature.NewHandler(db, auditLog, logger)
	r.Mount("/properties", propertiesfeature.Routes(propertiesHandler, sessionMgr))

	membersHandler := membersfeature.NewHandler(db, st.forms, st.conv, auditLog, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, logger)
	r.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Video progress (signed-in members)
	progressHandler := progressfeature.NewHandler(db, st.throttle, logger)
	r.Mount("/progress", progressfeature.Routes(progressHandler, sessionMgr))

	// JSON fallbacks
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
