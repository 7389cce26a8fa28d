package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"krishilink/db"
	"krishilink/models"
)

// ErrDuplicateEmail is returned by Insert when the email is already registered.
var ErrDuplicateEmail = errors.New("duplicate email")

type Store interface {
	Insert(ctx context.Context, user *models.User) error
}

// MongoStore relies on the unique email index created by db.EnsureIndexes.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, user *models.User) error {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}
