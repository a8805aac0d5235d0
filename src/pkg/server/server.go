/*
Package server is the HTTP API behind the browser UI: upload a receivables
export, check the column mapping, review customers, preview reminders, then
send them or download them as .eml files.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	echomw "invoice-reminder/src/pkg/echo-middleware"
	"invoice-reminder/src/pkg/email"
	"invoice-reminder/src/pkg/reminder"
	"invoice-reminder/src/pkg/session"
)

// SenderFunc builds the sender for a provider. email.NewSender in production.
type SenderFunc func(ctx context.Context, provider email.Provider) (email.Sender, *xerr.Error)

type Options struct {
	Store     *session.Store
	Catalog   reminder.Catalog // nil means built-in templates only
	Policy    reminder.Policy
	Provider  email.Provider
	NewSender SenderFunc
	From      string
	Logo      []email.Attachment
	ChunkSize int
	Interval  time.Duration // between two sends
	Limiter   *echomw.RateLimiter
	Now       func() time.Time
}

type Server struct {
	echo    *echo.Echo
	options Options
}

func New(options Options) *Server {
	if options.Store == nil {
		options.Store = session.NewStore(Cfg.MaxSessions)
	}
	if options.NewSender == nil {
		options.NewSender = email.NewSender
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Limiter == nil {
		options.Limiter = echomw.NewRateLimiterFromConfig()
	}
	if len(options.Logo) > 0 {
		options.Policy.InlineLogo = true
	}

	server := &Server{echo: echo.New(), options: options}
	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.echo.Use(middleware.Recover())
	server.echo.Use(echomw.RouteAccessLoggerMiddleware)
	server.echo.Use(options.Limiter.Middleware)
	server.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", Cfg.MaxUploadMB)))

	server.routes()
	return server
}

func (server *Server) routes() {
	server.echo.GET("/healthz", server.health)

	api := server.echo.Group("/api")
	api.GET("/templates", server.templates)
	api.POST("/uploads", server.createUpload)
	api.PUT("/uploads/:id", server.replaceUpload)
	api.PUT("/uploads/:id/mapping", server.remap)
	api.GET("/uploads/:id/customers", server.customers)
	api.GET("/uploads/:id/preview", server.preview)
	api.POST("/uploads/:id/send", server.send)
	api.POST("/uploads/:id/export", server.export)

	if Cfg.StaticDir != "" {
		server.echo.Static("/", Cfg.StaticDir)
	}
}

// Handler exposes the router, mostly for tests.
func (server *Server) Handler() http.Handler {
	return server.echo
}

/*
Run serves on address until ctx is cancelled, then shuts down gracefully,
giving in-flight requests ShutdownTimeout to finish.
*/
func (server *Server) Run(ctx context.Context, address string) (e *xerr.Error) {
	startErr := make(chan error, 1)
	go func() {
		startErr <- server.echo.Start(address)
	}()
	tl.Log(tl.Notice, palette.GreenBold, "Listening on %s", "http://"+address)

	select {
	case err := <-startErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return xerr.NewError(err, "Unable to start server", address)
	case <-ctx.Done():
	}

	tl.Log(tl.Notice, palette.Blue, "Shutting down, waiting up to %s", ShutdownTimeout())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout())
	defer cancel()
	err := server.echo.Shutdown(shutdownCtx)
	if err != nil {
		return xerr.NewError(err, "Unable to shut down server", address)
	}
	return nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respondError(c echo.Context, status int, message string, e *xerr.Error) error {
	response := errorResponse{Error: message}
	if e != nil {
		response.Detail = fmt.Sprintf("%v", e)
		tl.Log(tl.Warning, palette.Red, "%s: %s", message, response.Detail)
	}
	return c.JSON(status, response)
}
