// Package http is the gin transport for the mailbox relay.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/auth"
	"github.com/skymail/skymail/internal/config"
	"github.com/skymail/skymail/internal/mailbox"
)

// NewServer builds the HTTP server with the mailbox routes. All three
// operations live on "/" and require a bearer identity; everything else
// is a plain-text 404.
func NewServer(svc *mailbox.Service, authn auth.Authenticator, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery(), CORS())

	handlers := NewMailboxHandlers(svc, logger)

	authed := router.Group("/", RequireIdentity(authn, logger))
	authed.GET("", handlers.ListInbox)
	authed.POST("", handlers.Submit)
	authed.DELETE("", handlers.Delete)

	router.NoRoute(func(c *gin.Context) {
		c.String(stdhttp.StatusNotFound, "Error 404")
	})

	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
