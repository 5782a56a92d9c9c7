package gateway

import (
	"net/http"

	"github.com/example/chefbazaar/pkg/apperr"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/gin-gonic/gin"
)

type placeOrderRequest struct {
	MealID      string `json:"mealId" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,min=1,max=100"`
	UserName    string `json:"userName" binding:"max=120"`
	UserAddress string `json:"userAddress" binding:"max=500"`
}

type checkoutRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type statusRequest struct {
	OrderStatus string `json:"orderStatus" binding:"required,orderstatus"`
}

// placeOrder godoc
// @Summary Place an unpaid order for a meal
// @Tags orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 201 {object} models.Order
// @Failure 400,401,403,404 {object} map[string]string
// @Router /orders [post]
func (g *Gateway) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	order, err := g.svc.Orders.PlaceOrder(c.Request.Context(), principal(c).Email, service.PlaceOrderInput{
		MealID:   req.MealID,
		Quantity: req.Quantity,
		Address:  req.UserAddress,
		Name:     req.UserName,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (g *Gateway) myOrders(c *gin.Context) {
	orders, err := g.svc.Orders.MyOrders(c.Request.Context(), principal(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (g *Gateway) chefOrders(c *gin.Context) {
	orders, err := g.svc.Orders.ChefOrders(c.Request.Context(), account(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// updateOrderStatus godoc
// @Summary Move an order along pending, confirmed, delivered or cancelled
// @Tags orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "order id"
// @Success 200 {object} models.Order
// @Failure 400,403,404,409 {object} map[string]string
// @Router /orders/{id}/status [patch]
func (g *Gateway) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	acc, err := g.svc.Accounts.Get(c.Request.Context(), principal(c).Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			err = apperr.Forbidden("account is not registered")
		}
		g.fail(c, err)
		return
	}
	order, err := g.svc.Orders.UpdateStatus(c.Request.Context(), acc, c.Param("id"), models.OrderStatus(req.OrderStatus))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// createCheckoutSession godoc
// @Summary Open a provider checkout for an order
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} service.CheckoutResult
// @Failure 403,404,409,502 {object} map[string]string
// @Router /create-checkout-session [post]
func (g *Gateway) createCheckoutSession(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	result, err := g.svc.Orders.OpenCheckout(c.Request.Context(), principal(c).Email, req.OrderID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// successPayment godoc
// @Summary Reconcile an order with its checkout session
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param session_id query string true "checkout session id"
// @Success 200 {object} service.Confirmation
// @Failure 400,404,409,502 {object} map[string]string
// @Router /success-payment [patch]
func (g *Gateway) successPayment(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		g.fail(c, apperr.Invalid("session_id query parameter is required"))
		return
	}
	result, err := g.svc.Orders.ConfirmPayment(c.Request.Context(), sessionID)
	if err != nil {
		g.fail(c, err)
		return
	}
	if !result.Completed {
		c.JSON(http.StatusOK, gin.H{"completed": false, "message": "payment not completed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) myPayments(c *gin.Context) {
	payments, err := g.svc.Orders.MyPayments(c.Request.Context(), principal(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
