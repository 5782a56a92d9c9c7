package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "none"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every order status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderPending, OrderConfirmed, OrderDelivered, OrderCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FoodID            string             `bson:"foodId" json:"foodId"`
	MealName          string             `bson:"mealName" json:"mealName"`
	Price             float64            `bson:"price" json:"price"`
	Quantity          int                `bson:"quantity" json:"quantity"`
	ChefID            int                `bson:"chefId" json:"chefId"`
	ChefEmail         string             `bson:"chefEmail" json:"chefEmail"`
	UserEmail         string             `bson:"userEmail" json:"userEmail"`
	UserName          string             `bson:"userName,omitempty" json:"userName,omitempty"`
	UserAddress       string             `bson:"userAddress,omitempty" json:"userAddress,omitempty"`
	PaymentStatus     PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus       OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	CheckoutSessionID string             `bson:"checkoutSessionId,omitempty" json:"checkoutSessionId,omitempty"`
	TransactionID     string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	TrackingID        string             `bson:"trackingId,omitempty" json:"trackingId,omitempty"`
	OrderTime         time.Time          `bson:"orderTime" json:"orderTime"`
	PaidAt            *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Total is the order amount in major currency units.
func (o *Order) Total() float64 {
	return o.Price * float64(o.Quantity)
}
