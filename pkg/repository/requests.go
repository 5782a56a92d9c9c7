package repository

import (
	"context"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RoleRequestStore struct {
	coll *mongo.Collection
}

// Insert stores a new request. A second pending request for the same
// (email, type) fails with ErrDuplicate via the partial unique index.
func (s *RoleRequestStore) Insert(ctx context.Context, req *models.RoleRequest) error {
	res, err := s.coll.InsertOne(ctx, req)
	if err != nil {
		return translate(err)
	}
	req.ID = objectIDOf(res.InsertedID)
	return nil
}

func (s *RoleRequestStore) FindPending(ctx context.Context, email string, typ models.RequestType) (*models.RoleRequest, error) {
	var req models.RoleRequest
	err := s.coll.FindOne(ctx, pendingFilter(email, typ)).Decode(&req)
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *RoleRequestStore) ListByType(ctx context.Context, typ models.RequestType) ([]models.RoleRequest, error) {
	return findAll[models.RoleRequest](ctx, s.coll, bson.M{"requestType": typ},
		options.Find().SetSort(bson.D{{Key: "requestTime", Value: -1}}))
}

func (s *RoleRequestStore) DeletePending(ctx context.Context, email string, typ models.RequestType) error {
	res, err := s.coll.DeleteOne(ctx, pendingFilter(email, typ))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Reject marks the pending request rejected and keeps it.
func (s *RoleRequestStore) Reject(ctx context.Context, email string, typ models.RequestType) error {
	res, err := s.coll.UpdateOne(ctx, pendingFilter(email, typ),
		bson.M{"$set": bson.M{"requestStatus": models.RequestRejected}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func pendingFilter(email string, typ models.RequestType) bson.M {
	return bson.M{"userEmail": email, "requestType": typ, "requestStatus": models.RequestPending}
}
