package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	authhandler "fluxor/internal/auth/handler"
	"fluxor/internal/events"
	healthhandler "fluxor/internal/health/handler"
	publiclinkhandler "fluxor/internal/publiclink/handler"
	"fluxor/pkg/config"
	"fluxor/pkg/contracts"
	"fluxor/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Handlers groups the three route surfaces the API exposes. Staff routes
// sit behind JWT authentication, the auth handler's login and register
// routes are open, and the public booking surface is rate limited per
// remote IP instead of authenticated.
type Handlers struct {
	Auth   *authhandler.AuthHandler
	Staff  []contracts.Handler
	Public *publiclinkhandler.PublicHandler
}

type Application struct {
	cfg           *config.Config
	server        *http.Server
	rateLimiter   *middleware.ClientRateLimiter
	publisher     *events.Publisher
	healthHandler http.Handler
	authHandler   http.Handler
	staffHandler  http.Handler
	publicHandler http.Handler
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(handlers Handlers, publisher *events.Publisher) {
	a.publisher = publisher
	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.RemoteIPExtractor,
		a.cfg.Log,
	)

	a.setHealthHandler()
	a.setAuthHandler(handlers.Auth)
	a.setStaffHandler(handlers.Auth, handlers.Staff)
	a.setPublicHandler(handlers.Public)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := healthhandler.NewHealthHandler(a.cfg.Client.Mongo, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var h http.Handler = healthRouter
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.healthHandler = h
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

// setAuthHandler serves login and register. The chain matches the staff
// one except for authentication, and shares the public rate limiter so
// credential stuffing is throttled per source IP.
func (a *Application) setAuthHandler(auth *authhandler.AuthHandler) {
	authRouter := httprouter.New()
	auth.RegisterPublicRoutes(authRouter)

	var h http.Handler = authRouter
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.ClientRateLimit(a.rateLimiter)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.authHandler = h
	a.cfg.Log.Info("Auth endpoints configured (rate limited, unauthenticated)")
}

func (a *Application) setStaffHandler(auth *authhandler.AuthHandler, staff []contracts.Handler) {
	staffRouter := httprouter.New()
	auth.RegisterRoutes(staffRouter)
	for _, handler := range staff {
		handler.RegisterRoutes(staffRouter)
	}

	var h http.Handler = staffRouter
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.Authentication(a.cfg.JWTSecret, a.cfg.Log)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.staffHandler = h
	a.cfg.Log.Info("Staff endpoints configured with full security middleware stack")
}

func (a *Application) setPublicHandler(public *publiclinkhandler.PublicHandler) {
	publicRouter := httprouter.New()
	public.RegisterRoutes(publicRouter)

	var h http.Handler = publicRouter
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	h = middleware.ClientRateLimit(a.rateLimiter)(h)
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	a.publicHandler = h
	a.cfg.Log.Info("Public booking endpoints configured (rate limited, unauthenticated)")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/public/", a.publicHandler)
	mux.Handle("/api/v1/auth/login", a.authHandler)
	mux.Handle("/api/v1/auth/register", a.authHandler)
	mux.Handle("/", a.staffHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	a.cfg.Log.Info("Stopping background workers...")
	a.rateLimiter.Stop()
	if a.publisher != nil {
		a.publisher.Close()
	}
	a.cfg.Log.Info("Background workers stopped")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.GracefulShutdown()
	a.cfg.Log.Info("Server stopped gracefully")
}
