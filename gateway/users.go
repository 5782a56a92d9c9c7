package gateway

import (
	"net/http"

	"github.com/example/chefbazaar/pkg/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Name  string `json:"name" binding:"max=120"`
	Photo string `json:"photo" binding:"omitempty,url"`
}

type roleRequestBody struct {
	Name string `json:"name" binding:"max=120"`
}

type approveRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	RequestType string      `json:"requestType" binding:"required,requesttype"`
	Role        models.Role `json:"role" binding:"required"`
}

type rejectRequest struct {
	Email       string `json:"email" binding:"required,email"`
	RequestType string `json:"requestType" binding:"required,requesttype"`
}

// login godoc
// @Summary Record a sign-in, creating the account on first login
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} models.Account
// @Router /users [post]
func (g *Gateway) login(c *gin.Context) {
	var req loginRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			g.fail(c, bindError(err))
			return
		}
	}
	p := principal(c)
	name := req.Name
	if name == "" {
		name = p.Name
	}
	acc, err := g.svc.Accounts.Login(c.Request.Context(), p.Email, name, req.Photo)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (g *Gateway) userRole(c *gin.Context) {
	acc, err := g.svc.Accounts.Get(c.Request.Context(), principal(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": acc.Role, "status": acc.Status, "chefId": acc.ChefID})
}

func (g *Gateway) listUsers(c *gin.Context) {
	accs, err := g.svc.Accounts.List(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, accs)
}

func (g *Gateway) markFraud(c *gin.Context) {
	acc, err := g.svc.Accounts.MarkFraud(c.Request.Context(), account(c).Email, c.Param("email"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (g *Gateway) requestRole(typ models.RequestType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body roleRequestBody
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				g.fail(c, bindError(err))
				return
			}
		}
		req, err := g.svc.Roles.Request(c.Request.Context(), principal(c).Email, body.Name, typ)
		if err != nil {
			g.fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, req)
	}
}

func (g *Gateway) listRequests(typ models.RequestType) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := g.svc.Roles.List(c.Request.Context(), typ)
		if err != nil {
			g.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, reqs)
	}
}

// approveRole godoc
// @Summary Approve a pending role request
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} models.Account
// @Failure 400,403,404 {object} map[string]string
// @Router /update-role [patch]
func (g *Gateway) approveRole(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	acc, err := g.svc.Roles.Approve(c.Request.Context(), account(c).Email, req.Email,
		models.RequestType(req.RequestType), req.Role)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

func (g *Gateway) rejectRole(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	err := g.svc.Roles.Reject(c.Request.Context(), account(c).Email, req.Email, models.RequestType(req.RequestType))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

// dashboardStats godoc
// @Summary Revenue, account count and orders per status
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /dashboard-statistics [get]
func (g *Gateway) dashboardStats(c *gin.Context) {
	stats, err := g.svc.Stats.Dashboard(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
