package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LockAndGet atomically claims the slot for the duration of a booking
// attempt. The claim succeeds only if the slot is unbooked and not under a
// live claim; losing callers are told the slot is already booked.
func (r *mongoAvailabilityRepo) LockAndGet(ctx context.Context, slotID string) (*models.Slot, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"id":        slotID,
		"is_booked": false,
		"$or": bson.A{
			bson.M{"locked_until": bson.M{"$exists": false}},
			bson.M{"locked_until": nil},
			bson.M{"locked_until": bson.M{"$lt": now}},
		},
	}
	update := bson.M{
		"$set": bson.M{"locked_until": now.Add(r.lockWindow)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var slot models.Slot
	err := r.slotColl.FindOneAndUpdate(ctx, filter, update, opts).Decode(&slot)
	if err == nil {
		return &slot, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error locking slot %s: %w", slotID, err)
	}

	// Claim failed; distinguish a missing slot from a contended one.
	if _, getErr := r.GetByID(ctx, slotID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrSlotAlreadyBooked
}

// ReleaseLock clears the advisory claim without touching booked state.
// Safe to call whether or not a claim exists.
func (r *mongoAvailabilityRepo) ReleaseLock(ctx context.Context, slotID string) error {
	_, err := r.slotColl.UpdateOne(ctx,
		bson.M{"id": slotID},
		bson.M{"$unset": bson.M{"locked_until": ""}},
	)
	if err != nil {
		return fmt.Errorf("error releasing lock on slot %s: %w", slotID, err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) MarkBooked(ctx context.Context, slotID, bookingID string) error {
	res, err := r.slotColl.UpdateOne(ctx,
		bson.M{"id": slotID, "is_booked": false},
		bson.M{
			"$set":   bson.M{"is_booked": true, "booked_by_booking_id": bookingID},
			"$unset": bson.M{"locked_until": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("error marking slot %s booked: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotAlreadyBooked
	}
	return nil
}

func (r *mongoAvailabilityRepo) MarkAvailable(ctx context.Context, slotID string) error {
	res, err := r.slotColl.UpdateOne(ctx,
		bson.M{"id": slotID},
		bson.M{
			"$set":   bson.M{"is_booked": false},
			"$unset": bson.M{"booked_by_booking_id": "", "locked_until": ""},
		},
	)
	if err != nil {
		return fmt.Errorf("error marking slot %s available: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (r *mongoAvailabilityRepo) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	var slot models.Slot
	if err := r.slotColl.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("error fetching slot %s: %w", slotID, err)
	}
	return &slot, nil
}

func (r *mongoAvailabilityRepo) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Slot, error) {
	filter := bson.M{
		"provider_id": providerID,
		"start_time":  bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.slotColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing slots for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}

// DeleteStaleUnbooked purges slots older than the retention threshold that
// were never booked. Booked slots are kept for audit alongside their
// bookings.
func (r *mongoAvailabilityRepo) DeleteStaleUnbooked(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.slotColl.DeleteMany(ctx, bson.M{
		"end_time":  bson.M{"$lt": olderThan},
		"is_booked": false,
	})
	if err != nil {
		return 0, fmt.Errorf("error purging stale slots: %w", err)
	}
	return res.DeletedCount, nil
}
