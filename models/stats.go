package models

type DashboardStats struct {
	TotalCropsListed       int64   `bson:"totalCropsListed"       json:"totalCropsListed"`
	PendingInterestsCount  int64   `bson:"pendingInterestsCount"  json:"pendingInterestsCount"`
	AcceptedInterestsCount int64   `bson:"acceptedInterestsCount" json:"acceptedInterestsCount"`
	ApproximateProfit      float64 `bson:"approximateProfit"      json:"approximateProfit"`
}
