package booking

import (
	"context"
	"errors"
	"time"

	availabilityRepo "reservely/database/repository/availability"
	bookingRepo "reservely/database/repository/booking"
	"reservely/models"
	"reservely/services/directory"
	"reservely/services/notification"
)

// JobScheduler is the booking engine's view of the delayed job subsystem.
type JobScheduler interface {
	// ScheduleAutoComplete enqueues the one-shot auto-complete job for the
	// booking, replacing any job already scheduled for it.
	ScheduleAutoComplete(ctx context.Context, bookingID string, endTime time.Time, delayHours int) error
	// CancelAutoComplete removes the booking's job if one exists. Absence
	// is not an error.
	CancelAutoComplete(ctx context.Context, bookingID string) error
}

// CancellationCodeStore issues and checks the short-lived verification
// codes of the two-phase guest cancellation flow.
type CancellationCodeStore interface {
	Issue(ctx context.Context, bookingID, guestEmail string) (string, error)
	Verify(ctx context.Context, bookingID, guestEmail, code string) error
}

// BookingService is the orchestration facade over booking lifecycle
// operations.
type BookingService interface {
	Create(ctx context.Context, req models.CreateBookingRequest) ([]models.Booking, error)
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBySerialKey(ctx context.Context, serialKey string) (*models.Booking, error)
	ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Booking, error)
	Update(ctx context.Context, bookingID string, req models.UpdateBookingRequest) (*models.Booking, error)
	AutoComplete(ctx context.Context, bookingID string) error
	RequestCancellation(ctx context.Context, bookingID string, req models.CancellationRequest) error
	VerifyCancellation(ctx context.Context, bookingID string, req models.CancellationVerify) (*models.Booking, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo        bookingRepo.BookingRepository
	Slots       availabilityRepo.AvailabilityRepository
	Directory   directory.ProviderDirectory
	Notifier    notification.NotificationService
	Jobs        JobScheduler
	Uow         UnitOfWork
	Idempotency IdempotencyCache
	Codes       CancellationCodeStore
	Validator   *ConflictValidator
}

func (s *DefaultBookingService) GetByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: bookingID}
		}
		return nil, err
	}
	return b, nil
}

// GetBySerialKey resolves the human-shareable serial to its booking.
func (s *DefaultBookingService) GetBySerialKey(ctx context.Context, serialKey string) (*models.Booking, error) {
	b, err := s.Repo.GetBySerialKey(ctx, serialKey)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, &NotFoundError{Resource: "booking", ID: serialKey}
		}
		return nil, err
	}
	return b, nil
}

// ListByProvider returns the provider's bookings starting inside [from, to).
func (s *DefaultBookingService) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Booking, error) {
	return s.Repo.ListByProvider(ctx, providerID, from, to)
}
