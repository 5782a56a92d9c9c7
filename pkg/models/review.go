package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FoodID        string             `bson:"foodId" json:"foodId"`
	ReviewerEmail string             `bson:"reviewerEmail" json:"reviewerEmail"`
	ReviewerName  string             `bson:"reviewerName,omitempty" json:"reviewerName,omitempty"`
	ReviewerImage string             `bson:"reviewerImage,omitempty" json:"reviewerImage,omitempty"`
	Rating        int                `bson:"rating" json:"rating"`
	Comment       string             `bson:"comment" json:"comment"`
	Date          time.Time          `bson:"date" json:"date"`
}

type Favorite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MealID    string             `bson:"mealId" json:"mealId"`
	MealName  string             `bson:"mealName,omitempty" json:"mealName,omitempty"`
	ChefID    int                `bson:"chefId,omitempty" json:"chefId,omitempty"`
	Price     float64            `bson:"price,omitempty" json:"price,omitempty"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	AddedTime time.Time          `bson:"addedTime" json:"addedTime"`
}
