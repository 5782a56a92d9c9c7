package repository

import (
	"context"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MealStore struct {
	coll *mongo.Collection
}

// Home returns the n most recently created meals.
func (s *MealStore) Home(ctx context.Context, n int64) ([]models.Meal, error) {
	return findAll[models.Meal](ctx, s.coll, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(n))
}

// List returns one page of meals plus the total meal count.
func (s *MealStore) List(ctx context.Context, q models.MealQuery) ([]models.Meal, int64, error) {
	total, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	dir := -1
	if q.Asc {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: string(q.Sort), Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))

	meals, err := findAll[models.Meal](ctx, s.coll, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	return meals, total, nil
}

func (s *MealStore) ListByOwner(ctx context.Context, email string) ([]models.Meal, error) {
	return findAll[models.Meal](ctx, s.coll, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (s *MealStore) FindByID(ctx context.Context, id string) (*models.Meal, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var meal models.Meal
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&meal); err != nil {
		return nil, translate(err)
	}
	return &meal, nil
}

func (s *MealStore) Insert(ctx context.Context, meal *models.Meal) error {
	res, err := s.coll.InsertOne(ctx, meal)
	if err != nil {
		return translate(err)
	}
	meal.ID = objectIDOf(res.InsertedID)
	return nil
}

// Update replaces the mutable fields of a meal owned by owner.
func (s *MealStore) Update(ctx context.Context, id, owner string, in models.MealInput, now time.Time) (*models.Meal, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ingredients := in.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	update := bson.M{"$set": bson.M{
		"foodName":              in.FoodName,
		"chefName":              in.ChefName,
		"foodImage":             in.FoodImage,
		"price":                 in.Price,
		"rating":                in.Rating,
		"ingredients":           ingredients,
		"estimatedDeliveryTime": in.EstimatedDeliveryTime,
		"chefExperience":        in.ChefExperience,
		"updatedAt":             now,
	}}

	var meal models.Meal
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "userEmail": owner}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&meal)
	if err != nil {
		return nil, translate(err)
	}
	return &meal, nil
}

func (s *MealStore) Delete(ctx context.Context, id, owner string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "userEmail": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
