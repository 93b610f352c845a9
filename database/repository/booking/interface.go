// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"time"

	"reservely/database"
	"reservely/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository is the only component with write access to booking
// documents. Status writes go through UpdateStatus so the state machine
// stays the single mutation path.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	CreateMany(ctx context.Context, bookings []models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetBySerialKey(ctx context.Context, serialKey string) (*models.Booking, error)
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
	UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error
	CountActiveInRange(ctx context.Context, providerID string, start, end time.Time, excludeID string) (int64, error)
	SerialKeyExists(ctx context.Context, serialKey string) (bool, error)
	ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Booking, error)
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.GetDB()
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
