package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// auditTrail godoc
// @Summary Audit entries recorded for an entity, newest first
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param entityId path string true "Order, meal or transaction id, or account email"
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {array} repository.AuditLog
// @Router /audit/{entityId} [get]
func (g *Gateway) auditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := g.svc.Audit.Trail(c.Request.Context(), c.Param("entityId"), limit)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
