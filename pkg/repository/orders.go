package repository

import (
	"context"
	"errors"
	"time"

	"github.com/example/chefbazaar/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderStore struct {
	coll *mongo.Collection
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	res, err := s.coll.InsertOne(ctx, order)
	if err != nil {
		return translate(err)
	}
	order.ID = objectIDOf(res.InsertedID)
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, email string) ([]models.Order, error) {
	return findAll[models.Order](ctx, s.coll, bson.M{"userEmail": email},
		options.Find().SetSort(bson.D{{Key: "orderTime", Value: -1}}))
}

func (s *OrderStore) ListByChef(ctx context.Context, chefEmail string) ([]models.Order, error) {
	return findAll[models.Order](ctx, s.coll, bson.M{"chefEmail": chefEmail},
		options.Find().SetSort(bson.D{{Key: "orderTime", Value: -1}}))
}

// AttachCheckout records the checkout session on an unpaid order and moves
// its payment status to pending.
func (s *OrderStore) AttachCheckout(ctx context.Context, id, sessionID string, now time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": oid, "paymentStatus": bson.M{"$ne": models.PaymentPaid}}
	update := bson.M{"$set": bson.M{
		"checkoutSessionId": sessionID,
		"paymentStatus":     models.PaymentPending,
		"updatedAt":         now,
	}}
	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid moves an unpaid order to paid, attaching the transaction and
// tracking identifiers. It reports false when the order was already paid,
// in which case the stored order is returned untouched.
func (s *OrderStore) MarkPaid(ctx context.Context, id, transactionID, trackingID string, now time.Time) (*models.Order, bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, false, err
	}
	filter := bson.M{"_id": oid, "paymentStatus": bson.M{"$ne": models.PaymentPaid}}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentPaid,
		"transactionId": transactionID,
		"trackingId":    trackingID,
		"paidAt":        now,
		"updatedAt":     now,
	}}

	var order models.Order
	err = s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&order)
	if err == nil {
		return &order, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, translate(err)
	}

	existing, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// TransitionStatus sets orderStatus to `to` only while it still equals
// `from`. ErrNotFound means the order is missing or has moved on.
func (s *OrderStore) TransitionStatus(ctx context.Context, id string, from, to models.OrderStatus, now time.Time) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var order models.Order
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "orderStatus": from},
		bson.M{"$set": bson.M{"orderStatus": to, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// CountByStatus groups orders by orderStatus.
func (s *OrderStore) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$orderStatus"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[models.OrderStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
