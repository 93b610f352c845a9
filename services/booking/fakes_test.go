package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	availabilityRepo "reservely/database/repository/availability"
	bookingRepo "reservely/database/repository/booking"
	"reservely/models"
)

// In-memory doubles for the orchestrator's collaborators. All of them are
// safe for concurrent use because creation runs dispatch goroutines and
// some tests hammer the service from multiple goroutines.

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking

	createErr     error
	createManyErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: map[string]*models.Booking{}}
}

func (r *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) CreateMany(ctx context.Context, bookings []models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createManyErr != nil {
		return r.createManyErr
	}
	for i := range bookings {
		cp := bookings[i]
		r.bookings[cp.ID] = &cp
	}
	return nil
}

func (r *fakeBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetBySerialKey(ctx context.Context, serialKey string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.SerialKey == serialKey {
			cp := *b
			return &cp, nil
		}
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (r *fakeBookingRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	if v, ok := fields["notes"]; ok {
		b.Notes = v.(string)
	}
	if v, ok := fields["start_time"]; ok {
		b.StartTime = v.(time.Time)
	}
	if v, ok := fields["end_time"]; ok {
		b.EndTime = v.(time.Time)
	}
	if v, ok := fields["duration_minutes"]; ok {
		b.DurationMinutes = v.(int)
	}
	return nil
}

func (r *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	b.UpdatedAt = updatedAt
	return nil
}

func (r *fakeBookingRepo) CountActiveInRange(ctx context.Context, providerID string, start, end time.Time, excludeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if b.ProviderID != providerID || b.ID == excludeID {
			continue
		}
		if !b.Status.Active() {
			continue
		}
		if b.StartTime.Equal(start) && b.EndTime.Equal(end) {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) SerialKeyExists(ctx context.Context, serialKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.SerialKey == serialKey {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) EnsureIndexes() error { return nil }

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

func (r *fakeBookingRepo) countWithStatus(status models.BookingStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.Status == status {
			n++
		}
	}
	return n
}

type fakeSlotRepo struct {
	mu        sync.Mutex
	slots     map[string]*models.Slot
	templates map[string]*models.RecurringTemplate
	locked    map[string]bool

	markBookedErrAfter int // fail MarkBooked once this many calls succeeded; 0 disables
	markBookedCalls    int
	releasedIDs        []string
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{
		slots:     map[string]*models.Slot{},
		templates: map[string]*models.RecurringTemplate{},
		locked:    map[string]bool{},
	}
}

func (r *fakeSlotRepo) addSlot(s models.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := s
	r.slots[s.ID] = &cp
}

func (r *fakeSlotRepo) addTemplate(t models.RecurringTemplate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := t
	r.templates[t.ID] = &cp
}

func (r *fakeSlotRepo) LockAndGet(ctx context.Context, slotID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return nil, availabilityRepo.ErrSlotNotFound
	}
	if s.IsBooked || r.locked[slotID] {
		return nil, availabilityRepo.ErrSlotAlreadyBooked
	}
	r.locked[slotID] = true
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) ReleaseLock(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, slotID)
	r.releasedIDs = append(r.releasedIDs, slotID)
	return nil
}

func (r *fakeSlotRepo) MarkBooked(ctx context.Context, slotID, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markBookedErrAfter > 0 && r.markBookedCalls >= r.markBookedErrAfter {
		return fmt.Errorf("simulated write failure on slot %s", slotID)
	}
	s, ok := r.slots[slotID]
	if !ok {
		return availabilityRepo.ErrSlotNotFound
	}
	if s.IsBooked {
		return availabilityRepo.ErrSlotAlreadyBooked
	}
	s.IsBooked = true
	s.BookedByBookingID = bookingID
	delete(r.locked, slotID)
	r.markBookedCalls++
	return nil
}

func (r *fakeSlotRepo) MarkAvailable(ctx context.Context, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return availabilityRepo.ErrSlotNotFound
	}
	s.IsBooked = false
	s.BookedByBookingID = ""
	delete(r.locked, slotID)
	return nil
}

func (r *fakeSlotRepo) GetByID(ctx context.Context, slotID string) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return nil, availabilityRepo.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSlotRepo) ListByProvider(ctx context.Context, providerID string, from, to time.Time) ([]models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Slot
	for _, s := range r.slots {
		if s.ProviderID == providerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) GetTemplate(ctx context.Context, templateID string) (*models.RecurringTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok {
		return nil, availabilityRepo.ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeSlotRepo) ActiveTemplates(ctx context.Context) ([]models.RecurringTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RecurringTemplate
	for _, t := range r.templates {
		if t.Active {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) MaterializeRecurringInstance(ctx context.Context, tpl *models.RecurringTemplate, date time.Time) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	start, end := tpl.OccurrenceRange(date)
	for _, s := range r.slots {
		if s.RecurringTemplateID == tpl.ID && s.StartTime.Equal(start) {
			cp := *s
			return &cp, nil
		}
	}
	slot := &models.Slot{
		ID:                  fmt.Sprintf("%s@%s", tpl.ID, start.Format(time.RFC3339)),
		ProviderID:          tpl.ProviderID,
		StartTime:           start,
		EndTime:             end,
		RecurringTemplateID: tpl.ID,
		CreatedAt:           time.Now().UTC(),
	}
	r.slots[slot.ID] = slot
	cp := *slot
	return &cp, nil
}

func (r *fakeSlotRepo) LatestOccurrence(ctx context.Context, templateID string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest time.Time
	for _, s := range r.slots {
		if s.RecurringTemplateID == templateID && s.StartTime.After(latest) {
			latest = s.StartTime
		}
	}
	return latest, nil
}

func (r *fakeSlotRepo) DeleteStaleUnbooked(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.slots {
		if !s.IsBooked && s.EndTime.Before(olderThan) {
			delete(r.slots, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSlotRepo) EnsureIndexes() error { return nil }

func (r *fakeSlotRepo) bookedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s.IsBooked {
			n++
		}
	}
	return n
}

func (r *fakeSlotRepo) lockedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locked)
}

type fakeDirectory struct {
	prefs map[string]*models.ProviderPreferences
}

func (d *fakeDirectory) GetPreferences(ctx context.Context, providerID string) (*models.ProviderPreferences, error) {
	p, ok := d.prefs[providerID]
	if !ok {
		return nil, fmt.Errorf("no prefs for %s", providerID)
	}
	cp := *p
	return &cp, nil
}

type sentNotification struct {
	Kind      string
	Recipient string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(ctx context.Context, kind, recipient, title, message string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Kind: kind, Recipient: recipient})
	return nil
}

func (n *fakeNotifier) recipientsOf(kind string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.Kind == kind {
			out = append(out, s.Recipient)
		}
	}
	return out
}

// waitForKind polls until at least min notifications of the kind arrived,
// since dispatch is asynchronous.
func (n *fakeNotifier) waitForKind(kind string, min int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if got := n.recipientsOf(kind); len(got) >= min {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return n.recipientsOf(kind)
}

type fakeJobScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled []string
}

func newFakeJobScheduler() *fakeJobScheduler {
	return &fakeJobScheduler{scheduled: map[string]time.Time{}}
}

func (j *fakeJobScheduler) ScheduleAutoComplete(ctx context.Context, bookingID string, endTime time.Time, delayHours int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.scheduled[bookingID] = endTime.Add(time.Duration(delayHours) * time.Hour)
	return nil
}

func (j *fakeJobScheduler) CancelAutoComplete(ctx context.Context, bookingID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.scheduled, bookingID)
	j.cancelled = append(j.cancelled, bookingID)
	return nil
}

func (j *fakeJobScheduler) scheduledCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.scheduled)
}

type fakeIdempotencyCache struct {
	mu      sync.Mutex
	records map[string][]models.Booking
}

func newFakeIdempotencyCache() *fakeIdempotencyCache {
	return &fakeIdempotencyCache{records: map[string][]models.Booking{}}
}

func (c *fakeIdempotencyCache) Get(ctx context.Context, key string) ([]models.Booking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[key]
	return r, ok, nil
}

func (c *fakeIdempotencyCache) Save(ctx context.Context, key string, bookings []models.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[key] = bookings
	return nil
}

type fakeCodeStore struct {
	mu     sync.Mutex
	issued map[string]string // bookingID:email -> code
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{issued: map[string]string{}}
}

func (s *fakeCodeStore) Issue(ctx context.Context, bookingID, guestEmail string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := "424242"
	s.issued[bookingID+":"+guestEmail] = code
	return code, nil
}

func (s *fakeCodeStore) Verify(ctx context.Context, bookingID, guestEmail, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bookingID + ":" + guestEmail
	stored, ok := s.issued[key]
	if !ok || stored != code {
		return errCodeInvalid
	}
	delete(s.issued, key)
	return nil
}

// newTestService wires a DefaultBookingService over the fakes.
func newTestService(repo *fakeBookingRepo, slots *fakeSlotRepo, prefs *models.ProviderPreferences) (*DefaultBookingService, *fakeNotifier, *fakeJobScheduler) {
	notifier := &fakeNotifier{}
	jobs := newFakeJobScheduler()
	svc := &DefaultBookingService{
		Repo:        repo,
		Slots:       slots,
		Directory:   &fakeDirectory{prefs: map[string]*models.ProviderPreferences{prefs.ProviderID: prefs}},
		Notifier:    notifier,
		Jobs:        jobs,
		Uow:         BestEffortUnitOfWork{},
		Idempotency: newFakeIdempotencyCache(),
		Codes:       newFakeCodeStore(),
	}
	svc.Validator = &ConflictValidator{Repo: repo}
	return svc, notifier, jobs
}
