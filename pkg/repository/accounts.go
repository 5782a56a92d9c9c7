package repository

import (
	"context"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AccountStore struct {
	coll *mongo.Collection
}

// UpsertLogin creates the account on first login and refreshes
// last_loggedIn (and non-empty profile fields) afterwards.
func (s *AccountStore) UpsertLogin(ctx context.Context, email, name, photo string, now time.Time) (*models.Account, error) {
	set := bson.M{"last_loggedIn": now}
	if name != "" {
		set["name"] = name
	}
	if photo != "" {
		set["photo"] = photo
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"role":       models.RoleUser,
			"status":     models.StatusActive,
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var acc models.Account
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&acc)
	if mongo.IsDuplicateKeyError(err) {
		// lost an insert race with a concurrent first login; the document exists now
		err = s.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&acc)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&acc); err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	return findAll[models.Account](ctx, s.coll, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// SetRole updates the role and, when chefID is non-nil, the chef identifier.
func (s *AccountStore) SetRole(ctx context.Context, email string, role models.Role, chefID *int) error {
	set := bson.M{"role": role}
	if chefID != nil {
		set["chefId"] = *chefID
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": set})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AccountStore) SetStatus(ctx context.Context, email string, status models.AccountStatus) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AccountStore) ChefIDTaken(ctx context.Context, chefID int) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"chefId": chefID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *AccountStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}
