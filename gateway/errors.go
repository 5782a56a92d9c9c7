package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

func (g *Gateway) fail(c *gin.Context, err error) {
	abortWithError(c, g.logger, err)
}

// abortWithError writes {"message": ...} with the status of err's kind.
// Causes of internal and upstream errors are logged, never returned.
func abortWithError(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if logger != nil && (kind == apperr.KindInternal || kind == apperr.KindUpstream) {
		logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"message": apperr.PublicMessage(err)})
}

// bindError converts a binding failure into an Invalid error naming the
// offending fields.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid("malformed request body")
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return apperr.Invalid("invalid request: " + strings.Join(parts, ", "))
}
