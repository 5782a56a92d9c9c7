package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/chefbazaar/pkg/models"
	"github.com/example/chefbazaar/pkg/service"
	"github.com/gin-gonic/gin"
)

// homeMeals godoc
// @Summary Newest meals for the landing page
// @Tags meals
// @Produce json
// @Success 200 {array} models.Meal
// @Router /meals [get]
func (g *Gateway) homeMeals(c *gin.Context) {
	meals, err := g.svc.Catalog.Home(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

// listMeals godoc
// @Summary Paginated catalog
// @Tags meals
// @Produce json
// @Param sort query string false "price, rating or createdAt"
// @Param order query string false "asc or desc"
// @Param page query int false "page number, from 1"
// @Param limit query int false "page size, at most 100"
// @Success 200 {object} models.MealPage
// @Router /allmeals [get]
func (g *Gateway) listMeals(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	q := service.NormalizeMealQuery(c.Query("sort"), c.Query("order"), page, limit)

	result, err := g.svc.Catalog.List(c.Request.Context(), q)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) getMeal(c *gin.Context) {
	meal, err := g.svc.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (g *Gateway) mealReviews(c *gin.Context) {
	reviews, err := g.svc.Reviews.ListForMeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// createMeal godoc
// @Summary Add a meal to the catalog
// @Tags meals
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param meal body models.MealInput true "meal"
// @Success 201 {object} models.Meal
// @Failure 400,401,403 {object} map[string]string
// @Router /meals [post]
func (g *Gateway) createMeal(c *gin.Context) {
	var in models.MealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.fail(c, bindError(err))
		return
	}
	meal, err := g.svc.Catalog.Create(c.Request.Context(), account(c).Email, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

func (g *Gateway) myMeals(c *gin.Context) {
	meals, err := g.svc.Catalog.Mine(c.Request.Context(), account(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meals)
}

func (g *Gateway) updateMeal(c *gin.Context) {
	var in models.MealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		g.fail(c, bindError(err))
		return
	}
	meal, err := g.svc.Catalog.Update(c.Request.Context(), c.Param("id"), account(c).Email, in)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (g *Gateway) deleteMeal(c *gin.Context) {
	if err := g.svc.Catalog.Delete(c.Request.Context(), c.Param("id"), account(c).Email); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
