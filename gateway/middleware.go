package gateway

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/identity"
	"github.com/example/chefbazaar/pkg/metrics"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const (
	ctxPrincipal = "principal"
	ctxAccount   = "account"
)

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if p, ok := c.Get(ctxPrincipal); ok {
			fields = append(fields, zap.String("email", p.(*identity.Principal).Email))
		}
		logger.Info("HTTP request", fields...)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPActiveRequests.Inc()
		defer metrics.HTTPActiveRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware adapts go-chi/cors to gin. Preflights end with 204.
// Credentials are only allowed for an explicit origin list, never for "*".
func corsMiddleware(origins []string) gin.HandlerFunc {
	handler := cors.New(cors.Options{
		AllowedOrigins:     origins,
		AllowedMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials:   !slices.Contains(origins, "*"),
		MaxAge:             600,
		OptionsPassthrough: true,
	})
	return func(c *gin.Context) {
		passed := false
		handler.Handler(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware verifies the bearer token and binds the principal. Nothing
// downstream runs when verification fails.
func authMiddleware(verifier identity.Verifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortWithError(c, logger, apperr.Unauthorized("authorization header required (Bearer <token>)"))
			return
		}
		principal, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			logger.Debug("Token rejected", zap.Error(err))
			abortWithError(c, logger, apperr.Unauthorized("invalid or expired token"))
			return
		}
		c.Set(ctxPrincipal, principal)
		c.Next()
	}
}

// requireRole lets the request through only when the caller's account holds
// exactly role.
func requireRole(accounts *service.AccountService, role models.Role, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		acc, err := accounts.Get(c.Request.Context(), p.Email)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.Forbidden("account is not registered")
			}
			abortWithError(c, logger, err)
			return
		}
		if !acc.HasRole(role) {
			abortWithError(c, logger, apperr.Forbidden("access denied, requires the "+string(role)+" role"))
			return
		}
		c.Set(ctxAccount, acc)
		c.Next()
	}
}

func principal(c *gin.Context) *identity.Principal {
	return c.MustGet(ctxPrincipal).(*identity.Principal)
}

func account(c *gin.Context) *models.Account {
	return c.MustGet(ctxAccount).(*models.Account)
}
