package crops

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"krishilink/apperr"
	"krishilink/db"
	"krishilink/models"
)

type Filter struct {
	Type string
}

type Sort struct {
	Field     string
	Direction int
}

var (
	SortNewest    = Sort{Field: "created_at", Direction: -1}
	SortOldest    = Sort{Field: "created_at", Direction: 1}
	SortPriceAsc  = Sort{Field: "price_per_unit", Direction: 1}
	SortPriceDesc = Sort{Field: "price_per_unit", Direction: -1}
)

type Store interface {
	Insert(ctx context.Context, crop *models.Crop) (primitive.ObjectID, error)
	Find(ctx context.Context, filter Filter, sort Sort, limit int64) ([]models.Crop, error)
	FindByOwner(ctx context.Context, ownerEmail string) ([]models.Crop, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Crop, error)
	UpdateOwned(ctx context.Context, id primitive.ObjectID, ownerEmail string, fields bson.M) (int64, error)
	DeleteOwned(ctx context.Context, id primitive.ObjectID, ownerEmail string) (int64, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, crop *models.Crop) (primitive.ObjectID, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, crop)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert crop: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert crop: unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

func (s *MongoStore) Find(ctx context.Context, filter Filter, sort Sort, limit int64) ([]models.Crop, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	return s.find(ctx, query, db.OptionsFindSorted(sort.Field, sort.Direction, limit))
}

func (s *MongoStore) FindByOwner(ctx context.Context, ownerEmail string) ([]models.Crop, error) {
	return s.find(ctx, bson.M{"owner.owner_email": ownerEmail}, db.OptionsFindSorted("created_at", -1, 0))
}

func (s *MongoStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Crop, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find crops: %w", err)
	}
	defer cursor.Close(ctx)

	crops := []models.Crop{}
	if err := cursor.All(ctx, &crops); err != nil {
		return nil, fmt.Errorf("decode crops: %w", err)
	}
	return crops, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Crop, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	var crop models.Crop
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&crop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Crop not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find crop: %w", err)
	}
	return &crop, nil
}

func (s *MongoStore) UpdateOwned(ctx context.Context, id primitive.ObjectID, ownerEmail string, fields bson.M) (int64, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "owner.owner_email": ownerEmail},
		bson.M{"$set": fields},
	)
	if err != nil {
		return 0, fmt.Errorf("update crop: %w", err)
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) DeleteOwned(ctx context.Context, id primitive.ObjectID, ownerEmail string) (int64, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "owner.owner_email": ownerEmail})
	if err != nil {
		return 0, fmt.Errorf("delete crop: %w", err)
	}
	return res.DeletedCount, nil
}
