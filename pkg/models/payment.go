package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is a ledger entry; at most one exists per TransactionID.
type Payment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	TransactionID string             `bson:"transactionId" json:"transactionId"`
	OrderID       string             `bson:"orderId" json:"orderId"`
	MealID        string             `bson:"mealId" json:"mealId"`
	MealName      string             `bson:"mealName" json:"mealName"`
	ChefID        int                `bson:"chefId" json:"chefId"`
	Price         float64            `bson:"price" json:"price"`
	Currency      string             `bson:"currency" json:"currency"`
	CustomerEmail string             `bson:"customerEmail" json:"customerEmail"`
	Status        string             `bson:"status" json:"status"`
	TrackingID    string             `bson:"trackingId" json:"trackingId"`
	PaidAt        time.Time          `bson:"paidAt" json:"paidAt"`
}
