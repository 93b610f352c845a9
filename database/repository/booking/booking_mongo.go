package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrBookingNotFound is returned when no booking matches the lookup.
var ErrBookingNotFound = errors.New("booking not found")

func (r *mongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) CreateMany(ctx context.Context, bookings []models.Booking) error {
	docs := make([]any, 0, len(bookings))
	for i := range bookings {
		docs = append(docs, bookings[i])
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert bookings failed: %w", err)
	}
	return nil
}

func (r *mongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &booking, nil
}

func (r *mongoBookingRepo) GetBySerialKey(ctx context.Context, serialKey string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"serial_key": serialKey}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("error fetching booking with serial %s: %w", serialKey, err)
	}
	return &booking, nil
}

// UpdateFields patches non-status fields. The serial key and status are
// deliberately not patchable here.
func (r *mongoBookingRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	delete(fields, "status")
	delete(fields, "serial_key")
	fields["updated_at"] = time.Now().UTC()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update booking %s failed: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *mongoBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}},
	)
	if err != nil {
		return fmt.Errorf("update booking status %s failed: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrBookingNotFound
	}
	return nil
}
