// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"errors"
	"time"

	"reservely/database"
	"reservely/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrSlotNotFound is returned when the slot does not exist.
	ErrSlotNotFound = errors.New("availability slot not found")
	// ErrSlotAlreadyBooked is returned when the slot is booked or claimed
	// by a concurrent request.
	ErrSlotAlreadyBooked = errors.New("availability slot already booked")
)

// AvailabilityRepository owns slot state. LockAndGet is the single
// serialization point for concurrent booking attempts against one slot.
type AvailabilityRepository interface {
	LockAndGet(ctx context.Context, slotID string) (*models.Slot, error)
	ReleaseLock(ctx context.Context, slotID string) error
	MarkBooked(ctx context.Context, slotID, bookingID string) error
	MarkAvailable(ctx context.Context, slotID string) error
	GetByID(ctx context.Context, slotID string) (*models.Slot, error)
	ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Slot, error)

	// Recurring template support.
	GetTemplate(ctx context.Context, templateID string) (*models.RecurringTemplate, error)
	ActiveTemplates(ctx context.Context) ([]models.RecurringTemplate, error)
	MaterializeRecurringInstance(ctx context.Context, tpl *models.RecurringTemplate, date time.Time) (*models.Slot, error)
	LatestOccurrence(ctx context.Context, templateID string) (time.Time, error)

	// Maintenance.
	DeleteStaleUnbooked(ctx context.Context, olderThan time.Time) (int64, error)
	EnsureIndexes() error
}

type mongoAvailabilityRepo struct {
	slotColl     *mongo.Collection
	templateColl *mongo.Collection
	lockWindow   time.Duration
}

// NewMongoAvailabilityRepo constructs a new MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(lockWindow time.Duration) AvailabilityRepository {
	db := database.GetDB()
	return &mongoAvailabilityRepo{
		slotColl:     db.Collection("slots"),
		templateColl: db.Collection("recurring_templates"),
		lockWindow:   lockWindow,
	}
}
