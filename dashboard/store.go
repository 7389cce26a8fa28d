package dashboard

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"krishilink/db"
	"krishilink/models"
)

type Store interface {
	OwnerStats(ctx context.Context, ownerEmail string) (models.DashboardStats, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func sumWhenStatus(status string, value interface{}) bson.M {
	return bson.M{"$sum": bson.M{
		"$cond": []interface{}{
			bson.M{"$eq": []interface{}{"$interests.status", status}}, value, 0,
		},
	}}
}

// StatsPipeline counts crops before expanding interests: the unwind keeps
// crops with an empty interests array, and crop ids are collected as a set.
func StatsPipeline(ownerEmail string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"owner.owner_email": ownerEmail}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$interests",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":                    nil,
			"cropIds":                bson.M{"$addToSet": "$_id"},
			"pendingInterestsCount":  sumWhenStatus(models.StatusPending, 1),
			"acceptedInterestsCount": sumWhenStatus(models.StatusAccepted, 1),
			"approximateProfit":      sumWhenStatus(models.StatusAccepted, bson.M{"$ifNull": []interface{}{"$interests.total_price", 0}}),
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":                    0,
			"totalCropsListed":       bson.M{"$size": "$cropIds"},
			"pendingInterestsCount":  1,
			"acceptedInterestsCount": 1,
			"approximateProfit":      1,
		}}},
	}
}

func (s *MongoStore) OwnerStats(ctx context.Context, ownerEmail string) (models.DashboardStats, error) {
	ctx, cancel := db.Timeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, StatsPipeline(ownerEmail))
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("aggregate stats: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.DashboardStats
	if err := cursor.All(ctx, &rows); err != nil {
		return models.DashboardStats{}, fmt.Errorf("decode stats: %w", err)
	}
	// No matching crops means no group row.
	if len(rows) == 0 {
		return models.DashboardStats{}, nil
	}
	return rows[0], nil
}
