package repository

import (
	"context"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewStore struct {
	coll *mongo.Collection
}

// Replace creates or replaces the review keyed by (foodId, reviewerEmail).
func (s *ReviewStore) Replace(ctx context.Context, r *models.Review) (*models.Review, error) {
	filter := bson.M{"foodId": r.FoodID, "reviewerEmail": r.ReviewerEmail}
	update := bson.M{"$set": bson.M{
		"reviewerName":  r.ReviewerName,
		"reviewerImage": r.ReviewerImage,
		"rating":        r.Rating,
		"comment":       r.Comment,
		"date":          r.Date,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Review
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if mongo.IsDuplicateKeyError(err) {
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	}
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *ReviewStore) ListByFood(ctx context.Context, foodID string) ([]models.Review, error) {
	return findAll[models.Review](ctx, s.coll, bson.M{"foodId": foodID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (s *ReviewStore) ListByReviewer(ctx context.Context, email string) ([]models.Review, error) {
	return findAll[models.Review](ctx, s.coll, bson.M{"reviewerEmail": email},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

// Update edits an existing review owned by reviewer. It never creates one.
func (s *ReviewStore) Update(ctx context.Context, id, reviewer string, rating int, comment string, now time.Time) (*models.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var out models.Review
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "reviewerEmail": reviewer},
		bson.M{"$set": bson.M{"rating": rating, "comment": comment, "date": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func (s *ReviewStore) Delete(ctx context.Context, id, reviewer string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "reviewerEmail": reviewer})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
