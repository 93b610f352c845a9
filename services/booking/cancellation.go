package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"reservely/models"
	"reservely/services/notification"
	"reservely/utils"
)

// errCodeInvalid covers both a wrong code and an expired one; callers are
// not told which.
var errCodeInvalid = errors.New("verification code invalid or expired")

type redisCancellationCodeStore struct {
	client *redis.Client
	ttl    time.Duration
	length int
}

// NewRedisCancellationCodeStore builds the redis-backed verification code
// store for guest cancellations.
func NewRedisCancellationCodeStore(client *redis.Client, ttl time.Duration) CancellationCodeStore {
	return &redisCancellationCodeStore{client: client, ttl: ttl, length: 6}
}

func codeKey(bookingID, guestEmail string) string {
	return fmt.Sprintf("%s%s:%s", utils.CancelCodePrefix, bookingID, strings.ToLower(guestEmail))
}

func (s *redisCancellationCodeStore) Issue(ctx context.Context, bookingID, guestEmail string) (string, error) {
	code, err := utils.GenerateVerificationCode(s.length)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.client.Set(ctx, codeKey(bookingID, guestEmail), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

func (s *redisCancellationCodeStore) Verify(ctx context.Context, bookingID, guestEmail, code string) error {
	key := codeKey(bookingID, guestEmail)
	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errCodeInvalid
		}
		return fmt.Errorf("failed to retrieve verification code: %w", err)
	}
	if stored != code {
		return errCodeInvalid
	}
	// Single use.
	if err := s.client.Del(ctx, key).Err(); err != nil {
		utils.GetLogger().Warn("failed to delete verification code after use")
	}
	return nil
}

// RequestCancellation starts the two-phase guest cancellation: ownership is
// checked, then a short-lived verification code is sent out-of-band to the
// guest.
func (s *DefaultBookingService) RequestCancellation(ctx context.Context, bookingID string, req models.CancellationRequest) error {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := guestOwns(b, req.GuestEmail); err != nil {
		return err
	}
	if req.SerialKey != "" && req.SerialKey != b.SerialKey {
		return &AuthorizationError{Msg: "serial key does not match this booking"}
	}
	if !CanTransition(b.Status, models.StatusCancelled) {
		return &IllegalTransitionError{BookingID: b.ID, From: b.Status, To: models.StatusCancelled}
	}

	code, err := s.Codes.Issue(ctx, b.ID, req.GuestEmail)
	if err != nil {
		return err
	}

	dispatchAsync([]dispatchTask{{
		name: "send-cancellation-code",
		fn: func(ctx context.Context) error {
			return s.Notifier.Notify(ctx, notification.KindCancellationCode, b.GuestEmail,
				"Cancellation verification code",
				fmt.Sprintf("Your code to cancel booking %s is: %s. It expires shortly.", b.SerialKey, code),
				map[string]any{"bookingId": b.ID})
		},
	}})
	return nil
}

// VerifyCancellation completes the flow: the code must match and be
// unexpired, after which the cancel transition runs with its usual side
// effects.
func (s *DefaultBookingService) VerifyCancellation(ctx context.Context, bookingID string, req models.CancellationVerify) (*models.Booking, error) {
	b, err := s.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := guestOwns(b, req.GuestEmail); err != nil {
		return nil, err
	}

	if err := s.Codes.Verify(ctx, b.ID, req.GuestEmail, req.Code); err != nil {
		if errors.Is(err, errCodeInvalid) {
			return nil, &ValidationError{Msg: errCodeInvalid.Error()}
		}
		return nil, err
	}

	return s.applyStatusChange(ctx, b, models.StatusCancelled)
}

func guestOwns(b *models.Booking, guestEmail string) error {
	if !strings.EqualFold(b.GuestEmail, guestEmail) {
		return &AuthorizationError{Msg: "email does not match the booking's guest"}
	}
	return nil
}
