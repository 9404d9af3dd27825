package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/greenviewsolutions/portal/docs"
	"github.com/greenviewsolutions/portal/internal/api/handler"
	"github.com/greenviewsolutions/portal/internal/api/middleware"
	"github.com/greenviewsolutions/portal/internal/core/domain"
	"github.com/greenviewsolutions/portal/internal/core/ports"
)

// Services is everything the router needs from the core.
type Services struct {
	Auth            ports.AuthService
	Resolver        ports.SessionResolver
	Bootstrap       ports.PasswordBootstrap
	Invitations     ports.InvitationService
	Customers       ports.CustomerService
	ServiceRequests ports.ServiceRequestService
}

// Options carries the transport settings.
type Options struct {
	Cookie       handler.CookieOptions
	HealthChecks map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoprometheus.NewMiddleware("portal"))
	e.Use(middleware.Session(svc.Auth, log))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth, opts.Cookie)
	callbackHandler := handler.NewCallbackHandler(svc.Resolver, opts.Cookie)
	passwordHandler := handler.NewPasswordHandler(svc.Bootstrap, opts.Cookie)
	invitationHandler := handler.NewInvitationHandler(svc.Invitations)
	customerHandler := handler.NewCustomerHandler(svc.Customers)
	serviceHandler := handler.NewServiceHandler(svc.ServiceRequests)
	healthHandler := handler.NewHealthHandler(opts.HealthChecks)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	e.POST("/auth/signup", authHandler.SignUp)
	e.POST("/auth/signin", authHandler.SignIn)
	e.POST("/auth/signout", authHandler.SignOut)
	e.POST("/auth/magic-link", authHandler.RequestMagicLink)
	e.GET(domain.PathAuthCallback, callbackHandler.Resolve)
	e.POST(domain.PathAuthCallback, callbackHandler.Submit)
	e.GET(domain.PathSetPassword, passwordHandler.Guard)
	e.POST(domain.PathSetPassword, passwordHandler.Submit)

	// --- Dashboards: wrong or missing role redirects ---
	e.GET(domain.PathCustomerDashboard, customerHandler.Dashboard, middleware.RoleRouter(domain.RoleCustomer))
	e.GET(domain.PathEmployeeDashboard, customerHandler.EmployeeDashboard, middleware.RoleRouter(domain.RoleEmployee))

	// --- Customer API ---
	customer := e.Group("/api/customer", middleware.RequireSession(), middleware.RBAC(domain.RoleCustomer))
	customer.GET("/profile", customerHandler.Profile)
	customer.GET("/warranty", customerHandler.Warranty)
	customer.GET("/warranty/document", customerHandler.WarrantyDocument)
	customer.GET("/services", serviceHandler.List)
	customer.POST("/services", serviceHandler.Schedule)
	customer.PATCH("/services/:id", serviceHandler.Reschedule)
	customer.POST("/services/:id/cancel", serviceHandler.Cancel)

	// --- Staff API ---
	staff := e.Group("/api/staff", middleware.RequireSession(), middleware.RBAC(domain.RoleEmployee))
	staff.GET("/customers", customerHandler.List)
	staff.POST("/customers", customerHandler.Create)
	staff.GET("/customers/:id", customerHandler.Get)
	staff.PATCH("/customers/:id", customerHandler.Update)
	staff.POST("/invitations", invitationHandler.Invite)

	return e
}
