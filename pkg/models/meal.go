package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Meal struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FoodName              string             `bson:"foodName" json:"foodName"`
	ChefName              string             `bson:"chefName" json:"chefName"`
	FoodImage             string             `bson:"foodImage,omitempty" json:"foodImage,omitempty"`
	Price                 float64            `bson:"price" json:"price"`
	Rating                float64            `bson:"rating" json:"rating"`
	Ingredients           []string           `bson:"ingredients" json:"ingredients"`
	EstimatedDeliveryTime string             `bson:"estimatedDeliveryTime" json:"estimatedDeliveryTime"`
	ChefExperience        string             `bson:"chefExperience" json:"chefExperience"`
	ChefID                int                `bson:"chefId" json:"chefId"`
	UserEmail             string             `bson:"userEmail" json:"userEmail"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MealInput holds the chef-editable fields of a Meal.
type MealInput struct {
	FoodName              string   `json:"foodName" binding:"required,min=2,max=120"`
	ChefName              string   `json:"chefName" binding:"required"`
	FoodImage             string   `json:"foodImage" binding:"omitempty,url"`
	Price                 float64  `json:"price" binding:"gte=0"`
	Rating                float64  `json:"rating" binding:"gte=0,lte=5"`
	Ingredients           []string `json:"ingredients"`
	EstimatedDeliveryTime string   `json:"estimatedDeliveryTime"`
	ChefExperience        string   `json:"chefExperience"`
}

type MealSortField string

const (
	SortByPrice     MealSortField = "price"
	SortByRating    MealSortField = "rating"
	SortByCreatedAt MealSortField = "createdAt"
)

// MealQuery is a validated listing request.
type MealQuery struct {
	Sort  MealSortField
	Asc   bool
	Page  int
	Limit int
}

func (q MealQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

type MealPage struct {
	Meals       []Meal `json:"meals"`
	Total       int64  `json:"total"`
	TotalPages  int64  `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}
