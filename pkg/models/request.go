package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequestType string

const (
	RequestChef  RequestType = "chef"
	RequestAdmin RequestType = "admin"
)

func (t RequestType) Valid() bool {
	return t == RequestChef || t == RequestAdmin
}

// Role is the role granted when a request of this type is approved.
func (t RequestType) Role() Role {
	switch t {
	case RequestChef:
		return RoleChef
	case RequestAdmin:
		return RoleAdmin
	}
	return RoleNone
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestRejected RequestStatus = "rejected"
)

type RoleRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserEmail     string             `bson:"userEmail" json:"userEmail"`
	UserName      string             `bson:"userName" json:"userName"`
	RequestType   RequestType        `bson:"requestType" json:"requestType"`
	RequestStatus RequestStatus      `bson:"requestStatus" json:"requestStatus"`
	RequestTime   time.Time          `bson:"requestTime" json:"requestTime"`
}
