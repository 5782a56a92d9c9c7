package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleNone  Role = ""
	RoleUser  Role = "user"
	RoleChef  Role = "chef"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleChef, RoleAdmin:
		return true
	}
	return false
}

type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusFraud  AccountStatus = "fraud"
)

// Account is keyed by email and upserted on every login.
type Account struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email        string             `bson:"email" json:"email"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Photo        string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role         Role               `bson:"role" json:"role"`
	Status       AccountStatus      `bson:"status" json:"status"`
	ChefID       *int               `bson:"chefId,omitempty" json:"chefId,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastLoggedIn time.Time          `bson:"last_loggedIn" json:"last_loggedIn"`
}

// HasRole matches the role exactly; an account without a role matches none.
func (a *Account) HasRole(role Role) bool {
	return a != nil && role.Valid() && a.Role == role
}

func (a *Account) IsFraud() bool {
	return a != nil && a.Status == StatusFraud
}
