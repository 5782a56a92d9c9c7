package gateway

import (
	"net/http"

	"github.com/example/chefbazaar/pkg/service"
	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	FoodID        string `json:"foodId" binding:"required"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment" binding:"max=2000"`
	ReviewerName  string `json:"reviewerName" binding:"max=120"`
	ReviewerImage string `json:"reviewerImage" binding:"omitempty,url"`
}

type reviewUpdateRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type favoriteRequest struct {
	MealID string `json:"mealId" binding:"required"`
}

func (g *Gateway) submitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	p := principal(c)
	name := req.ReviewerName
	if name == "" {
		name = p.Name
	}
	review, err := g.svc.Reviews.Submit(c.Request.Context(), p.Email, service.ReviewInput{
		FoodID:        req.FoodID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		ReviewerName:  name,
		ReviewerImage: req.ReviewerImage,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (g *Gateway) myReviews(c *gin.Context) {
	reviews, err := g.svc.Reviews.Mine(c.Request.Context(), principal(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (g *Gateway) updateReview(c *gin.Context) {
	var req reviewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	review, err := g.svc.Reviews.Update(c.Request.Context(), c.Param("id"), principal(c).Email, req.Rating, req.Comment)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (g *Gateway) deleteReview(c *gin.Context) {
	if err := g.svc.Reviews.Delete(c.Request.Context(), c.Param("id"), principal(c).Email); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (g *Gateway) addFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.fail(c, bindError(err))
		return
	}
	fav, created, err := g.svc.Favorites.Add(c.Request.Context(), principal(c).Email, req.MealID)
	if err != nil {
		g.fail(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"favorite": fav, "created": created})
}

func (g *Gateway) myFavorites(c *gin.Context) {
	favs, err := g.svc.Favorites.Mine(c.Request.Context(), principal(c).Email)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, favs)
}

func (g *Gateway) removeFavorite(c *gin.Context) {
	if err := g.svc.Favorites.Remove(c.Request.Context(), c.Param("id"), principal(c).Email); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
