package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{
		coll: database.Collection("bookings"),
	}
}

// currentStatusIs builds an aggregation guard on the status of the last
// history entry, so conditional updates cannot race a concurrent transition.
func currentStatusIs(statuses ...string) bson.M {
	values := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, s)
	}
	return bson.M{
		"$in": bson.A{
			bson.M{"$arrayElemAt": bson.A{"$statusHistory.status", -1}},
			values,
		},
	}
}

func currentStatusNot(status string) bson.M {
	return bson.M{
		"$ne": bson.A{
			bson.M{"$arrayElemAt": bson.A{"$statusHistory.status", -1}},
			status,
		},
	}
}

// dayBounds returns the [startOfDay, endOfDay) range for day-bounded date
// queries, so timestamp noise inside the stored date cannot leak bookings
// across calendar days.
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (repo *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Compound index for provider and date (slot-conflict query pattern)
		{
			Keys:    bson.D{{Key: "provider", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("provider_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customer_created_idx"),
		},
		// Webhook lookups resolve bookings by split payment link.
		{
			Keys:    bson.D{{Key: "splitLinksSent.link", Value: 1}},
			Options: options.Index().SetName("split_link_idx"),
		},
	}

	_, err := repo.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
