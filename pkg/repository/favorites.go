package repository

import (
	"context"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FavoriteStore struct {
	coll *mongo.Collection
}

// Upsert inserts the favorite or refreshes addedTime on the existing
// (mealId, userEmail) pair. created reports which happened.
func (s *FavoriteStore) Upsert(ctx context.Context, f *models.Favorite) (*models.Favorite, bool, error) {
	filter := bson.M{"mealId": f.MealID, "userEmail": f.UserEmail}
	update := bson.M{
		"$set": bson.M{"addedTime": f.AddedTime},
		"$setOnInsert": bson.M{
			"mealName": f.MealName,
			"chefId":   f.ChefID,
			"price":    f.Price,
		},
	}
	res, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		res, err = s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return nil, false, translate(err)
	}

	var out models.Favorite
	if err := s.coll.FindOne(ctx, filter).Decode(&out); err != nil {
		return nil, false, translate(err)
	}
	return &out, res.UpsertedCount > 0, nil
}

func (s *FavoriteStore) ListByUser(ctx context.Context, email string) ([]models.Favorite, error) {
	return findAll[models.Favorite](ctx, s.coll, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "addedTime", Value: -1}}))
}

func (s *FavoriteStore) Delete(ctx context.Context, id, email string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "userEmail": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
