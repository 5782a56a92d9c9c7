package repository

import (
	"context"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PaymentStore struct {
	coll *mongo.Collection
}

func (s *PaymentStore) FindByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	if err := s.coll.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Insert adds a ledger entry. The unique transactionId index turns a second
// insert for the same transaction into ErrDuplicate.
func (s *PaymentStore) Insert(ctx context.Context, p *models.Payment) error {
	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return translate(err)
	}
	p.ID = objectIDOf(res.InsertedID)
	return nil
}

func (s *PaymentStore) ListByCustomer(ctx context.Context, email string) ([]models.Payment, error) {
	return findAll[models.Payment](ctx, s.coll, bson.M{"customerEmail": email},
		options.Find().SetSort(bson.D{{Key: "paidAt", Value: -1}}))
}

// TotalRevenue sums price over every payment; zero when there are none.
func (s *PaymentStore) TotalRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}
