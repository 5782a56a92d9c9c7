// Package gateway exposes the marketplace over HTTP.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/chefbazaar/gateway/docs"
	"github.com/example/chefbazaar/pkg/config"
	"github.com/example/chefbazaar/pkg/identity"
	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// ReadyFunc reports whether the backing stores are reachable.
type ReadyFunc func(ctx context.Context) error

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	verifier identity.Verifier
	svc      *service.Services
	ready    ReadyFunc
	server   *http.Server
}

func NewGateway(cfg *config.Config, logger *zap.Logger, verifier identity.Verifier, svc *service.Services, ready ReadyFunc) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(metricsMiddleware())
	router.Use(corsMiddleware(cfg.HTTP.AllowedOrigins))

	docs.SwaggerInfo.Version = cfg.Server.Version

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		verifier: verifier,
		svc:      svc,
		ready:    ready,
	}
}

func (g *Gateway) SetupRoutes() {
	r := g.router

	r.GET("/health", g.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// public catalog
	r.GET("/meals", g.homeMeals)
	r.GET("/allmeals", g.listMeals)
	r.GET("/meals/:id", g.getMeal)
	r.GET("/meals/:id/reviews", g.mealReviews)

	auth := r.Group("/", authMiddleware(g.verifier, g.logger))
	{
		auth.POST("/users", g.login)
		auth.GET("/users/role", g.userRole)
		auth.POST("/become-chef", g.requestRole(models.RequestChef))
		auth.POST("/become-admin", g.requestRole(models.RequestAdmin))

		auth.POST("/orders", g.placeOrder)
		auth.GET("/my-orders", g.myOrders)
		auth.PATCH("/orders/:id/status", g.updateOrderStatus)
		auth.POST("/create-checkout-session", g.createCheckoutSession)
		auth.PATCH("/success-payment", g.successPayment)
		auth.GET("/payments", g.myPayments)

		auth.POST("/reviews", g.submitReview)
		auth.GET("/my-reviews", g.myReviews)
		auth.PATCH("/reviews/:id", g.updateReview)
		auth.DELETE("/reviews/:id", g.deleteReview)

		auth.POST("/favourite-meal", g.addFavorite)
		auth.GET("/favourite-meals", g.myFavorites)
		auth.DELETE("/favourite-meal/:id", g.removeFavorite)

		chef := auth.Group("/", requireRole(g.svc.Accounts, models.RoleChef, g.logger))
		{
			chef.POST("/meals", g.createMeal)
			chef.GET("/mymeals", g.myMeals)
			chef.PATCH("/mymeals/:id", g.updateMeal)
			chef.DELETE("/mymeals/:id", g.deleteMeal)
			chef.GET("/chef-orders", g.chefOrders)
		}

		admin := auth.Group("/", requireRole(g.svc.Accounts, models.RoleAdmin, g.logger))
		{
			admin.GET("/users", g.listUsers)
			admin.PATCH("/users/:email/fraud", g.markFraud)
			admin.GET("/chef-requests", g.listRequests(models.RequestChef))
			admin.GET("/admin-requests", g.listRequests(models.RequestAdmin))
			admin.PATCH("/update-role", g.approveRole)
			admin.PATCH("/reject-request", g.rejectRole)
			admin.GET("/dashboard-statistics", g.dashboardStats)
			admin.GET("/audit/:entityId", g.auditTrail)
		}
	}
}

// Handler returns the routed engine, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := g.config.HTTP.Addr()
	g.server = &http.Server{
		Addr:              addr,
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

// health godoc
// @Summary Liveness and store reachability
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (g *Gateway) health(c *gin.Context) {
	if g.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := g.ready(ctx); err != nil {
			g.logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
