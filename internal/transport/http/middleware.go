package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/auth"
)

// ContextKeyCallerDID is the gin context key holding the authenticated
// caller's DID.
const ContextKeyCallerDID = "caller_did"

// RequireIdentity rejects requests without a decodable bearer identity.
// Per the API contract the rejection is a bare 401 with no body.
func RequireIdentity(authn auth.Authenticator, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authn.Authenticate(c.Request)
		if !ok {
			logger.Debug().Str("path", c.Request.URL.Path).Msg("request without identity")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ContextKeyCallerDID, identity.DID)
		c.Next()
	}
}

// callerDID reads the DID stored by RequireIdentity.
func callerDID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ContextKeyCallerDID)
	if !exists {
		return "", false
	}
	did, ok := v.(string)
	return did, ok && did != ""
}

// CORS permits all origins with the header allow-list the web client
// sends. Preflight requests are answered here and never reach auth.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request after it completes.
func RequestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
