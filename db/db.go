package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CropsCollectionName = "crops"
	UsersCollectionName = "users"
)

// Store owns the Mongo client and the collections the service works on.
// It is created once at startup and closed at shutdown.
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
	Crops  *mongo.Collection
	Users  *mongo.Collection
}

func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return FromClient(client, dbName), nil
}

func FromClient(client *mongo.Client, dbName string) *Store {
	database := client.Database(dbName)
	return &Store{
		Client: client,
		DB:     database,
		Crops:  database.Collection(CropsCollectionName),
		Users:  database.Collection(UsersCollectionName),
	}
}

// EnsureIndexes creates the unique user email index and the lookup indexes
// used by owner-scoped and interested-party queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_email"),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err := s.Crops.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner.owner_email", Value: 1}}, Options: options.Index().SetName("owner_email")},
		{Keys: bson.D{{Key: "interests.interestedUserEmail", Value: 1}}, Options: options.Index().SetName("interested_email")},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "price_per_unit", Value: 1}}, Options: options.Index().SetName("type_price")},
	})
	if err != nil {
		return fmt.Errorf("crops indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// OptionsFindSorted sorts on field (falling back to _id for ties) and applies
// limit when it is positive.
func OptionsFindSorted(field string, direction int, limit int64) *options.FindOptions {
	opts := options.Find()
	opts.SetSort(bson.D{{Key: field, Value: direction}, {Key: "_id", Value: direction}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return opts
}

// Timeout derives the per-operation deadline used by the stores.
func Timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}
