package interests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"krishilink/apperr"
	"krishilink/db"
	"krishilink/models"
)

// Store works on the interests array embedded in crop documents. Every write
// is a single-document atomic update; nothing reads and writes back the array.
type Store interface {
	FindCrop(ctx context.Context, cropID primitive.ObjectID) (*models.Crop, error)
	// PushInterest appends in and returns the crop header (without interests).
	// found is false when no crop has cropID.
	PushInterest(ctx context.Context, cropID primitive.ObjectID, in models.Interest, now time.Time) (crop *models.Crop, found bool, err error)
	// SetPendingStatus changes the status of a pending interest on a crop owned by ownerEmail.
	SetPendingStatus(ctx context.Context, cropID, interestID primitive.ObjectID, ownerEmail, status string, now time.Time) (matched, modified int64, err error)
	FindByInterestedUser(ctx context.Context, email string) ([]models.Crop, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) FindCrop(ctx context.Context, cropID primitive.ObjectID) (*models.Crop, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	var crop models.Crop
	err := s.coll.FindOne(ctx, bson.M{"_id": cropID}).Decode(&crop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Crop not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find crop: %w", err)
	}
	return &crop, nil
}

func (s *MongoStore) PushInterest(ctx context.Context, cropID primitive.ObjectID, in models.Interest, now time.Time) (*models.Crop, bool, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"interests": 0})

	var crop models.Crop
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": cropID},
		bson.M{
			"$push": bson.M{"interests": in},
			"$set":  bson.M{"updated_at": now},
		},
		opts,
	).Decode(&crop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("push interest: %w", err)
	}
	return &crop, true, nil
}

func (s *MongoStore) SetPendingStatus(ctx context.Context, cropID, interestID primitive.ObjectID, ownerEmail, status string, now time.Time) (int64, int64, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	// The positional $ addresses the element matched by $elemMatch, so only
	// that interest's status changes.
	filter := bson.M{
		"_id":               cropID,
		"owner.owner_email": ownerEmail,
		"interests": bson.M{"$elemMatch": bson.M{
			"interest_id": interestID,
			"status":      models.StatusPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"interests.$.status": status,
		"updated_at":         now,
	}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, 0, fmt.Errorf("set interest status: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (s *MongoStore) FindByInterestedUser(ctx context.Context, email string) ([]models.Crop, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	cursor, err := s.coll.Find(ctx, bson.M{"interests.interestedUserEmail": email}, db.OptionsFindSorted("created_at", -1, 0))
	if err != nil {
		return nil, fmt.Errorf("find crops by interest: %w", err)
	}
	defer cursor.Close(ctx)

	crops := []models.Crop{}
	if err := cursor.All(ctx, &crops); err != nil {
		return nil, fmt.Errorf("decode crops: %w", err)
	}
	return crops, nil
}
