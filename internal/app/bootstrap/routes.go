// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/visitdesk/internal/app/features/errors"
	healthfeature "github.com/dalemusser/visitdesk/internal/app/features/health"
	"github.com/dalemusser/visitdesk/internal/app/features/visitorapi"
	"github.com/dalemusser/visitdesk/internal/app/features/visitordashboard"
	visitsfeature "github.com/dalemusser/visitdesk/internal/app/features/visits"
	"github.com/dalemusser/visitdesk/internal/app/system/mailer"
	"github.com/dalemusser/visitdesk/internal/app/system/viewregistry"
	"github.com/dalemusser/visitdesk/internal/app/system/viewstate"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for VisitDesk.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It boots the template engine, registers the
// dashboard widget and the visits list view in a fresh registry, and mounts:
//
//	/health         MongoDB ping (JSON)
//	/static/*       CSS and images
//	/api/visitor    JSON API for the visitor form and kiosks (no CSRF)
//	/visits         staff list view with the status dashboard
//	/badge/{token}  printable visitor badge
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	loc, err := appCfg.location()
	if err != nil {
		return nil, err
	}

	// Dev mode enables template reloading.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	views, err := viewstate.New(viewstate.Options{
		Key:    appCfg.SessionKey,
		Name:   appCfg.SessionName,
		Domain: appCfg.SessionDomain,
		Secure: secure,
	}, logger)
	if err != nil {
		logger.Error("view state store init failed", zap.Error(err))
		return nil, err
	}

	reg, err := buildRegistry()
	if err != nil {
		logger.Error("view registry init failed", zap.Error(err))
		return nil, err
	}

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if !mail.Enabled() {
		logger.Info("mail_smtp_host not set; visitor emails are disabled")
	}

	r := chi.NewRouter()

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, loc, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	apiHandler := visitorapi.NewHandler(deps.MongoDatabase, errLog, loc, appCfg.KioskDeviceID, logger)
	r.Mount("/api/visitor", visitorapi.Routes(apiHandler))

	// Staff pages post forms; every state change carries a CSRF token.
	protect := csrfMiddleware([]byte(appCfg.CSRFKey), secure, logger)
	r.Group(func(pr chi.Router) {
		pr.Use(protect)

		visitsHandler := visitsfeature.NewHandler(deps.MongoDatabase, reg, views, mail, errLog, visitsfeature.Config{
			Location: loc,
			PageSize: appCfg.PageSize,
			SiteName: appCfg.SiteName,
			BaseURL:  appCfg.BaseURL,
		}, logger)
		pr.Mount("/visits", visitsfeature.Routes(visitsHandler))
		pr.Mount("/badge", visitsfeature.BadgeRoutes(visitsHandler))

		pr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/visits", http.StatusSeeOther)
		})
	})

	return r, nil
}

// buildRegistry registers the dashboard widget and the list view that
// embeds it. Order matters: a view may only name widgets already known.
func buildRegistry() (*viewregistry.Registry, error) {
	reg := viewregistry.New()
	if err := visitordashboard.Register(reg); err != nil {
		return nil, err
	}
	if err := visitsfeature.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// csrfMiddleware wraps gorilla/csrf. Outside production the app is served
// over plain HTTP, so requests are marked as such before the origin check.
func csrfMiddleware(key []byte, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(csrfFailure(logger)),
	)
	if secure {
		return protect
	}
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfFailure(logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("csrf check failed",
			zap.String("path", r.URL.Path),
			zap.Error(csrf.FailureReason(r)))
		http.Error(w, "Forbidden - the form expired. Reload the page and try again.", http.StatusForbidden)
	})
}
