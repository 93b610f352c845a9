package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reservely/models"
)

var testStart = time.Date(2026, 9, 7, 15, 0, 0, 0, time.UTC)

func autoConfirmPrefs() *models.ProviderPreferences {
	return &models.ProviderPreferences{
		ProviderID:             "prov-1",
		Name:                   "Test Provider",
		Email:                  "provider@example.com",
		AutoConfirm:            true,
		AutoCompleteDelayHours: 2,
	}
}

func singleRequest() models.CreateBookingRequest {
	return models.CreateBookingRequest{
		AvailabilityID: "slot-1",
		ProviderID:     "prov-1",
		GuestName:      "Alice",
		GuestEmail:     "alice@example.com",
		StartTime:      testStart,
		EndTime:        testStart.Add(time.Hour),
	}
}

func seedSlot(slots *fakeSlotRepo) {
	slots.addSlot(models.Slot{
		ID:         "slot-1",
		ProviderID: "prov-1",
		StartTime:  testStart,
		EndTime:    testStart.Add(time.Hour),
	})
}

func TestCreateSingleHappyPath(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, jobs := newTestService(repo, slots, autoConfirmPrefs())

	created, err := svc.Create(context.Background(), singleRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d bookings, want 1", len(created))
	}
	b := created[0]

	if b.Status != models.StatusConfirmed {
		t.Errorf("status = %s, want confirmed (auto-confirm provider)", b.Status)
	}
	if !strings.HasPrefix(b.SerialKey, "BK-20260907-") {
		t.Errorf("serial key %q does not carry the start date prefix", b.SerialKey)
	}
	if b.DurationMinutes != 60 {
		t.Errorf("duration = %d, want 60", b.DurationMinutes)
	}

	slot, _ := slots.GetByID(context.Background(), "slot-1")
	if !slot.IsBooked || slot.BookedByBookingID != b.ID {
		t.Errorf("slot not marked booked by %s: %+v", b.ID, slot)
	}
	if jobs.scheduledCount() != 1 {
		t.Errorf("auto-complete jobs scheduled = %d, want 1", jobs.scheduledCount())
	}
	if fireAt := jobs.scheduled[b.ID]; !fireAt.Equal(b.EndTime.Add(2 * time.Hour)) {
		t.Errorf("job fires at %v, want end time + 2h", fireAt)
	}
}

func TestCreatePendingWhenProviderApprovalRequired(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	prefs := autoConfirmPrefs()
	prefs.AutoConfirm = false
	svc, _, _ := newTestService(repo, slots, prefs)

	created, err := svc.Create(context.Background(), singleRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].Status != models.StatusPending {
		t.Errorf("status = %s, want pending", created[0].Status)
	}
}

func TestCreateRejectsMissingSlot(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	_, err := svc.Create(context.Background(), singleRequest())
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nfe.Resource != "slot" {
		t.Errorf("missing resource = %s, want slot", nfe.Resource)
	}
}

func TestCreateRejectsBookedSlot(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	slots.addSlot(models.Slot{
		ID: "slot-1", ProviderID: "prov-1",
		StartTime: testStart, EndTime: testStart.Add(time.Hour),
		IsBooked: true, BookedByBookingID: "someone-else",
	})
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	_, err := svc.Create(context.Background(), singleRequest())
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if repo.count() != 0 {
		t.Errorf("booking persisted for a booked slot")
	}
}

func TestCreateRejectsRangeMismatchAndReleasesClaim(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	req := singleRequest()
	req.StartTime = testStart.Add(30 * time.Minute)
	req.EndTime = testStart.Add(90 * time.Minute)

	_, err := svc.Create(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if slots.lockedCount() != 0 {
		t.Error("slot claim not released after rejected booking")
	}
	if repo.count() != 0 {
		t.Error("booking persisted despite range mismatch")
	}
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	req := singleRequest()
	req.StartTime, req.EndTime = req.EndTime, req.StartTime

	_, err := svc.Create(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestCreateRejectsForeignProviderSlot(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	slots.addSlot(models.Slot{
		ID: "slot-1", ProviderID: "prov-other",
		StartTime: testStart, EndTime: testStart.Add(time.Hour),
	})
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	_, err := svc.Create(context.Background(), singleRequest())
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if slots.lockedCount() != 0 {
		t.Error("slot claim not released")
	}
}

func TestCreateRejectsActiveRangeConflict(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	// Another slot booking already claims this exact range.
	seedBooking(repo, "existing", models.StatusConfirmed, testStart, testStart.Add(time.Hour))
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	_, err := svc.Create(context.Background(), singleRequest())
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if slots.lockedCount() != 0 {
		t.Error("slot claim not released after conflict rejection")
	}
}

func TestCreateIdempotentReplay(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, jobs := newTestService(repo, slots, autoConfirmPrefs())

	req := singleRequest()
	req.IdempotencyKey = "idem-abc"

	first, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}

	// Retry with the same key. The slot is now booked, so a re-execution
	// would fail; a replay must instead return the original result.
	second, err := svc.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("retried Create: %v", err)
	}
	if len(second) != 1 || second[0].ID != first[0].ID {
		t.Errorf("replay returned %+v, want original booking %s", second, first[0].ID)
	}
	if repo.count() != 1 {
		t.Errorf("bookings persisted = %d, want 1", repo.count())
	}
	if jobs.scheduledCount() != 1 {
		t.Errorf("jobs scheduled = %d, want 1 (replay must not re-schedule)", jobs.scheduledCount())
	}
}

func TestConcurrentCreatesSameSlotOneWinner(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	const attempts = 16
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Create(context.Background(), singleRequest())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		var ce *ConflictError
		if !errors.As(err, &ce) {
			t.Errorf("loser got %v, want *ConflictError", err)
		}
	}
	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
	if repo.count() != 1 {
		t.Errorf("bookings persisted = %d, want 1", repo.count())
	}
}

func TestCreateUnknownProvider(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	req := singleRequest()
	req.ProviderID = "prov-unknown"
	if _, err := svc.Create(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestGetByIDMapsMissingBooking(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())

	_, err := svc.GetByID(context.Background(), "missing")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
}

func TestGetBySerialKey(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())
	ctx := context.Background()

	created, err := svc.Create(ctx, singleRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := svc.GetBySerialKey(ctx, created[0].SerialKey)
	if err != nil {
		t.Fatalf("GetBySerialKey: %v", err)
	}
	if found.ID != created[0].ID {
		t.Errorf("resolved booking %s, want %s", found.ID, created[0].ID)
	}

	_, err = svc.GetBySerialKey(ctx, "BK-20260907-NOSUCH")
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
}

func TestListByProviderReturnsBookings(t *testing.T) {
	repo := newFakeBookingRepo()
	slots := newFakeSlotRepo()
	seedSlot(slots)
	svc, _, _ := newTestService(repo, slots, autoConfirmPrefs())
	ctx := context.Background()

	if _, err := svc.Create(ctx, singleRequest()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	bookings, err := svc.ListByProvider(ctx, "prov-1", testStart.Add(-time.Hour), testStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListByProvider: %v", err)
	}
	if len(bookings) != 1 {
		t.Errorf("bookings = %d, want 1", len(bookings))
	}
}
