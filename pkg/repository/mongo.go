package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/chefbazaar/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	collAccounts  = "users"
	collMeals     = "meals"
	collRequests  = "roleRequests"
	collOrders    = "orders"
	collPayments  = "payments"
	collReviews   = "reviews"
	collFavorites = "favorites"
)

// MongoRepository owns the process-wide client. Typed stores share it.
type MongoRepository struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
}

func NewMongoRepository(cfg *config.MongoDBConfig) (*MongoRepository, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoRepository{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
	}, nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoRepository) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoRepository) Accounts() *AccountStore {
	return &AccountStore{coll: m.database.Collection(collAccounts)}
}

func (m *MongoRepository) Meals() *MealStore {
	return &MealStore{coll: m.database.Collection(collMeals)}
}

func (m *MongoRepository) RoleRequests() *RoleRequestStore {
	return &RoleRequestStore{coll: m.database.Collection(collRequests)}
}

func (m *MongoRepository) Orders() *OrderStore {
	return &OrderStore{coll: m.database.Collection(collOrders)}
}

func (m *MongoRepository) Payments() *PaymentStore {
	return &PaymentStore{coll: m.database.Collection(collPayments)}
}

func (m *MongoRepository) Reviews() *ReviewStore {
	return &ReviewStore{coll: m.database.Collection(collReviews)}
}

func (m *MongoRepository) Favorites() *FavoriteStore {
	return &FavoriteStore{coll: m.database.Collection(collFavorites)}
}

// EnsureIndexes creates the uniqueness constraints the services rely on.
// It is idempotent.
func (m *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collAccounts: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_email")},
			{
				Keys: bson.D{{Key: "chefId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("ux_chef_id").
					SetPartialFilterExpression(bson.M{"chefId": bson.M{"$type": "number"}}),
			},
		},
		collMeals: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}, Options: options.Index().SetName("ix_owner")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("ix_created")},
		},
		collRequests: {
			{
				Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "requestType", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("ux_pending_request").
					SetPartialFilterExpression(bson.M{"requestStatus": "pending"}),
			},
		},
		collOrders: {
			{Keys: bson.D{{Key: "userEmail", Value: 1}}, Options: options.Index().SetName("ix_user")},
			{Keys: bson.D{{Key: "chefEmail", Value: 1}}, Options: options.Index().SetName("ix_chef")},
			{
				Keys: bson.D{{Key: "trackingId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("ux_tracking_id").
					SetPartialFilterExpression(bson.M{"trackingId": bson.M{"$type": "string"}}),
			},
		},
		collPayments: {
			{Keys: bson.D{{Key: "transactionId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_transaction_id")},
			{Keys: bson.D{{Key: "customerEmail", Value: 1}}, Options: options.Index().SetName("ix_customer")},
		},
		collReviews: {
			{Keys: bson.D{{Key: "foodId", Value: 1}, {Key: "reviewerEmail", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_food_reviewer")},
		},
		collFavorites: {
			{Keys: bson.D{{Key: "mealId", Value: 1}, {Key: "userEmail", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_meal_user")},
		},
	}

	indexes[m.config.AuditCollection] = []mongo.IndexModel{
		{Keys: bson.D{{Key: "entity_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("ix_entity_time")},
	}

	for coll, idx := range indexes {
		if _, err := m.database.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// AuditLog is one recorded state change.
type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Service   string             `bson:"service" json:"service"`
	Action    string             `bson:"action" json:"action"`
	EntityID  string             `bson:"entity_id" json:"entityId"`
	Actor     string             `bson:"actor,omitempty" json:"actor,omitempty"`
	Data      bson.M             `bson:"data,omitempty" json:"data,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func (m *MongoRepository) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := m.database.Collection(m.config.AuditCollection).InsertOne(ctx, entry)
	if err != nil {
		return translate(err)
	}
	entry.ID = objectIDOf(res.InsertedID)
	return nil
}

// GetAuditLogs returns up to limit entries for entityID, newest first.
func (m *MongoRepository) GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]AuditLog, error) {
	return findAll[AuditLog](ctx, m.database.Collection(m.config.AuditCollection), bson.M{"entity_id": entityID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(limit))
}

// objectID parses a hex id. Malformed ids are reported as ErrNotFound.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", ErrNotFound, id)
	}
	return oid, nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func objectIDOf(v interface{}) primitive.ObjectID {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid
	}
	return primitive.NilObjectID
}
