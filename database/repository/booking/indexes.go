// FILE: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on booking ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Serial keys are globally unique
		{
			Keys:    bson.D{{Key: "serial_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_serial_key"),
		},
		// Conflict query pattern: provider + exact range + status
		{
			Keys:    bson.D{{Key: "provider_id", Value: 1}, {Key: "start_time", Value: 1}, {Key: "end_time", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("provider_range_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "guest_email", Value: 1}},
			Options: options.Index().SetName("guest_email_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
