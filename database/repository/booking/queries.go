package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"reservely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountActiveInRange counts bookings for the provider whose time range
// exactly matches [start, end) and whose status still claims the slot.
// Providers expose fixed discrete slots, so exact-range equality is the
// conflict condition.
func (r *mongoBookingRepo) CountActiveInRange(ctx context.Context, providerID string, start, end time.Time, excludeID string) (int64, error) {
	filter := bson.M{
		"provider_id": providerID,
		"start_time":  start,
		"end_time":    end,
		"status":      bson.M{"$in": []models.BookingStatus{models.StatusConfirmed, models.StatusInProgress}},
	}
	if excludeID != "" {
		filter["id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting active bookings for provider %s: %w", providerID, err)
	}
	return count, nil
}

func (r *mongoBookingRepo) SerialKeyExists(ctx context.Context, serialKey string) (bool, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"serial_key": serialKey}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking serial key: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBookingRepo) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"provider_id": providerID,
		"start_time":  bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
