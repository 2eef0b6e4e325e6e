package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/formgate/internal/auth"
	"github.com/BradenHooton/formgate/internal/config"
	"github.com/BradenHooton/formgate/internal/flash"
	"github.com/BradenHooton/formgate/internal/handlers"
	"github.com/BradenHooton/formgate/internal/messages"
	"github.com/BradenHooton/formgate/internal/metrics"
	mw "github.com/BradenHooton/formgate/internal/middleware"
	"github.com/BradenHooton/formgate/internal/services"
	"github.com/BradenHooton/formgate/internal/session"
	"github.com/BradenHooton/formgate/internal/token"
	"github.com/BradenHooton/formgate/internal/views"
	pkghttp "github.com/BradenHooton/formgate/pkg/http"
	"github.com/BradenHooton/formgate/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	loginPath   = "/login"
	landingPath = "/menu"
	errorPath   = "/error"
)

// Deps are the collaborators the router is assembled from.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Sessions *session.Manager
	Accounts auth.AccountFinder
	Menus    services.MenuRepository
	Health   handlers.HealthChecker
}

// DriverTargets lists the screens reachable from the driver page. The debug
// screen is listed only where it is mounted.
func DriverTargets(debug bool) []handlers.DriverTarget {
	targets := []handlers.DriverTarget{
		{ID: "VA0101", Name: "Purchase", Path: "/purchase"},
		{ID: "VB0101", Name: "Sample", Path: "/sample"},
		{ID: "VZ9901", Name: "Driver", Path: "/driver"},
	}
	if debug {
		targets = append(targets, handlers.DriverTarget{ID: "VZ9902", Name: "Debug", Path: "/debug"})
	}
	return targets
}

// Directives is the token activation table: form pages mint a token and the
// actions they post to consume it.
func Directives(targets []handlers.DriverTarget) token.Directives {
	d := token.Directives{}.
		Get(loginPath, token.Create).
		Post(loginPath, token.Validate).
		Get("/purchase", token.Create).
		Post("/purchase/execute", token.Validate).
		Get("/sample", token.Create).
		Post("/sample/execute", token.Validate).
		Get(errorPath, token.Create).
		Get("/driver", token.Create)
	for _, t := range targets {
		d.Post(handlers.SelectPath(t), token.Validate)
	}
	return d
}

// NewRouter builds the application handler.
func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	log := d.Logger
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	debug := !cfg.Server.IsProduction()

	bundle, err := messages.Load(cfg.Server.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	renderer, err := views.New(token.NewInjector(mw.NosurfCSRF{}))
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}

	flashes := flash.NewCodec(cfg.Flash.Secret, cfg.Flash.CookieName, cfg.Flash.TTL, cfg.Session.CookieSecure)
	audit := logger.NewAuditLogger(log)
	translator := handlers.NewErrorTranslator(flashes, audit, log, ipConfig, errorPath)
	pages := handlers.NewPages(renderer, bundle, d.Sessions, flashes)

	timing := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:    cfg.Auth.TimingBaseDelayMs,
		RandomDelayMs:  cfg.Auth.TimingRandomDelayMs,
		DelayOnSuccess: true,
	})
	authenticator := auth.NewAuthenticator(d.Accounts, timing, log)
	outcomes := auth.NewOutcomes(d.Sessions, flashes, auth.OutcomeConfig{
		LandingPath: landingPath,
		FailurePath: loginPath + "?error",
		IPConfig:    ipConfig,
	}, audit, log, d.Metrics)

	targets := DriverTargets(debug)
	login := handlers.NewLoginHandler(pages, authenticator, outcomes, d.Sessions, audit, ipConfig, log)
	menu := handlers.NewMenuHandler(pages, services.NewMenuService(d.Menus, log))
	purchase := handlers.NewScreenHandler(pages, services.NewPurchaseService(log), "Purchase", "/purchase/execute")
	sample := handlers.NewScreenHandler(pages, services.NewSampleService(log), "Sample", "/sample/execute")
	errorPage := handlers.NewErrorPageHandler(pages)
	driver := handlers.NewDriverHandler(pages, targets)

	interceptor := token.NewInterceptor(Directives(targets), d.Sessions, translator.Handle, log, d.Metrics)
	wrap := translator.Wrap

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(mw.SecureLogger(log, ipConfig))
	router.Use(mw.SecurityHeaders(mw.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(translator.Recover)

	router.Get("/health", handlers.Health(d.Health))
	router.Handle("/metrics", d.Metrics.Handler())

	router.Group(func(app chi.Router) {
		app.Use(d.Sessions.Load)
		app.Use(mw.CSRF(mw.CSRFConfig{
			Secure:    cfg.Session.CookieSecure,
			SameSite:  session.ParseSameSite(cfg.Session.CookieSameSite),
			OnFailure: translator.Handle,
		}))

		// Public pages
		app.Group(func(r chi.Router) {
			r.Use(interceptor.Middleware)

			r.Get("/", wrap(handlers.Root(d.Sessions)))
			r.Get(loginPath, wrap(login.Show))
			r.With(mw.RateLimitByIP(mw.LoginRateLimit(cfg.Auth.LoginAttemptsPerMinute, translator.Handle))).
				Post(loginPath, wrap(login.Submit))
			r.Get("/logout", wrap(login.Logout))
			r.Post("/logout", wrap(login.Logout))
			r.Get(errorPath, wrap(errorPage.Show))
		})

		// Screens that need a logged-in user
		app.Group(func(r chi.Router) {
			r.Use(d.Sessions.RequireIdentity(loginPath))
			r.Use(interceptor.Middleware)

			r.Get(landingPath, wrap(menu.Show))
			r.Get("/purchase", wrap(purchase.Show))
			r.Post("/purchase/execute", wrap(purchase.Execute))
			r.Get("/sample", wrap(sample.Show))
			r.Post("/sample/execute", wrap(sample.Execute))
			r.Get("/driver", wrap(driver.Show))
			for _, t := range driver.Targets() {
				r.Post(handlers.SelectPath(t), wrap(driver.Select(t)))
			}

			if debug {
				dbg := handlers.NewDebugHandler(pages, d.Sessions, cfg.Server.Env)
				r.Get("/debug", wrap(dbg.Show))
				r.Post("/debug", wrap(dbg.Submit))
			}
		})
	})

	return router, nil
}
