package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/booking"
	vehicleDomain "github.com/DriveNow-Rentals/service-booking/internal/domain/vehicle"
	"github.com/DriveNow-Rentals/service-booking/pkg/domain"
	"github.com/DriveNow-Rentals/service-booking/pkg/kafka"
)

// --- Fakes ---

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.UserID() == userID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, status bookingDomain.BookingStatus, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if status == "" || bk.Status() == status {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountOverlapping(_ context.Context, vehicleID uuid.UUID, start, end time.Time, statuses []bookingDomain.BookingStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, bk := range r.bookings {
		if bk.VehicleID() != vehicleID {
			continue
		}
		matched := false
		for _, s := range statuses {
			if bk.Status() == s {
				matched = true
				break
			}
		}
		if matched && bk.Overlaps(start, end) {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) VehiclesHeldAt(_ context.Context, at time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	for _, bk := range r.bookings {
		if bk.Status().IsTerminal() {
			continue
		}
		if bk.Overlaps(at, at) {
			seen[bk.VehicleID()] = struct{}{}
		}
	}
	ids := make([]uuid.UUID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeBookingRepo) FindDueForActivation(_ context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusConfirmed && !bk.StartDate().After(now) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindOverdueActive(_ context.Context, now time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusActive && bk.EndDate().Before(now) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) TotalRevenueCents(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusCompleted {
			sum += bk.TotalAmountCents()
		}
	}
	return sum, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[bk.ID()]; !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	r.bookings[bk.ID()] = bk
	return nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("vehicle", id.String())
	}
	return v, nil
}

func (r *fakeVehicleRepo) List(_ context.Context, _ vehicleDomain.Filter, _, _ int) ([]*vehicleDomain.Vehicle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*vehicleDomain.Vehicle
	for _, v := range r.vehicles {
		if v.Active() {
			out = append(out, v)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeVehicleRepo) ListActiveIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, v := range r.vehicles {
		if v.Active() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return domain.NewNotFoundError("vehicle", id.String())
	}
	if available {
		v.MarkAvailable()
	} else {
		v.MarkUnavailable()
	}
	return nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Harness ---

type serviceFixture struct {
	service   *BookingService
	bookings  *fakeBookingRepo
	vehicles  *fakeVehicleRepo
	publisher *capturingPublisher
	vehicleID uuid.UUID
	now       time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	bookingRepo := newFakeBookingRepo()
	vehicleRepo := newFakeVehicleRepo()
	publisher := &capturingPublisher{}
	logger := zap.NewNop()

	v, err := vehicleDomain.NewVehicle(
		"Toyota", "Corolla", 2022,
		vehicleDomain.CategoryCompact, vehicleDomain.TransmissionAutomatic, vehicleDomain.FuelPetrol,
		5, 5000, "TEST-001", 10000, "Airport", "",
	)
	require.NoError(t, err)
	require.NoError(t, vehicleRepo.Save(context.Background(), v))

	service := NewBookingService(
		bookingRepo,
		vehicleRepo,
		bookingDomain.NewDailyRatePricing(),
		passthroughTx{},
		publisher,
		logger,
	)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	return &serviceFixture{
		service:   service,
		bookings:  bookingRepo,
		vehicles:  vehicleRepo,
		publisher: publisher,
		vehicleID: v.ID(),
		now:       now,
	}
}

func (f *serviceFixture) createRequest(start, end time.Time) CreateBookingRequest {
	return CreateBookingRequest{
		VehicleID:       f.vehicleID,
		StartDate:       start,
		EndDate:         end,
		PickupLocation:  "Airport Terminal 1",
		DropoffLocation: "Downtown Office",
	}
}

// --- Tests ---

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)

	t.Run("happy path snapshots price and holds the vehicle", func(t *testing.T) {
		f := newServiceFixture(t)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, end))
		require.NoError(t, err)

		assert.Equal(t, "pending", dto.Status)
		assert.Equal(t, int64(5000), dto.PricePerDayCents)
		assert.Equal(t, 3, dto.TotalDays)
		assert.Equal(t, int64(15000), dto.TotalAmountCents)
		assert.Equal(t, "USD", dto.Currency)

		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.False(t, v.Available())

		assert.Contains(t, f.publisher.types(), "booking.created")
	})

	t.Run("second request for held vehicle is a conflict", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, end))
		require.NoError(t, err)

		later := f.createRequest(start.AddDate(0, 1, 0), end.AddDate(0, 1, 0))
		_, err = f.service.CreateBooking(ctx, uuid.New(), later)
		require.Error(t, err)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("overlap with confirmed booking is a conflict even when flag is free", func(t *testing.T) {
		f := newServiceFixture(t)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, end))
		require.NoError(t, err)

		// Confirm, then force the flag free to simulate drift.
		require.NoError(t, f.service.HandlePaymentCompleted(ctx, dto.ID))
		require.NoError(t, f.vehicles.SetAvailability(ctx, f.vehicleID, true))

		overlapping := f.createRequest(start.AddDate(0, 0, 2), end.AddDate(0, 0, 2))
		_, err = f.service.CreateBooking(ctx, uuid.New(), overlapping)
		require.Error(t, err)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("inactive vehicle reads as not found", func(t *testing.T) {
		f := newServiceFixture(t)

		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		v.Deactivate()

		_, err = f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, end))
		require.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("inverted interval rejected", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(end, start))
		require.Error(t, err)
		assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))
	})

	t.Run("concurrent requests admit exactly one booking", func(t *testing.T) {
		f := newServiceFixture(t)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, end))
			}(i)
		}
		wg.Wait()

		successes := 0
		for _, err := range errs {
			if err == nil {
				successes++
			} else {
				assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
			}
		}
		assert.Equal(t, 1, successes)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("customer cancel outside notice window frees the vehicle", func(t *testing.T) {
		f := newServiceFixture(t)
		userID := uuid.New()
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, userID, f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		cancelled, err := f.service.CancelBooking(ctx, userID, false, dto.ID, "change of plans")
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Equal(t, "change of plans", cancelled.CancelReason)

		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.True(t, v.Available())

		assert.Contains(t, f.publisher.types(), "booking.cancelled")
	})

	t.Run("customer cancel inside notice window is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		userID := uuid.New()
		start := f.now.Add(6 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, userID, f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		_, err = f.service.CancelBooking(ctx, userID, false, dto.ID, "too late")
		require.Error(t, err)
		assert.Equal(t, domain.CodeTooLateToCancel, domain.CodeOf(err))

		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.False(t, v.Available())
	})

	t.Run("admin cancel bypasses the notice window", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(6 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		cancelled, err := f.service.CancelBooking(ctx, uuid.New(), true, dto.ID, "fleet maintenance")
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)
	})

	t.Run("foreign booking reads as not found", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		_, err = f.service.CancelBooking(ctx, uuid.New(), false, dto.ID, "not mine")
		require.Error(t, err)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}

func TestBookingService_TransitionBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("admin walks the full lifecycle", func(t *testing.T) {
		f := newServiceFixture(t)
		adminID := uuid.New()
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		confirmed, err := f.service.TransitionBooking(ctx, adminID, true, dto.ID, "confirmed", "")
		require.NoError(t, err)
		assert.Equal(t, "confirmed", confirmed.Status)

		// Confirmation keeps the vehicle held.
		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.False(t, v.Available())

		active, err := f.service.TransitionBooking(ctx, adminID, true, dto.ID, "active", "keys handed over")
		require.NoError(t, err)
		assert.Equal(t, "active", active.Status)

		completed, err := f.service.TransitionBooking(ctx, adminID, true, dto.ID, "completed", "")
		require.NoError(t, err)
		assert.Equal(t, "completed", completed.Status)

		// Completion frees the vehicle.
		v, err = f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.True(t, v.Available())
	})

	t.Run("illegal jump is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		_, err = f.service.TransitionBooking(ctx, uuid.New(), true, dto.ID, "completed", "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		_, err = f.service.TransitionBooking(ctx, uuid.New(), true, dto.ID, "parked", "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidStatus, domain.CodeOf(err))
	})

	t.Run("non-admin callers are forbidden", func(t *testing.T) {
		f := newServiceFixture(t)
		userID := uuid.New()
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, userID, f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		_, err = f.service.TransitionBooking(ctx, userID, false, dto.ID, "confirmed", "")
		require.Error(t, err)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}

func TestBookingService_HandlePaymentCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms a pending booking and keeps the vehicle held", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		require.NoError(t, f.service.HandlePaymentCompleted(ctx, dto.ID))

		bk, err := f.bookings.FindByID(ctx, dto.ID)
		require.NoError(t, err)
		assert.Equal(t, bookingDomain.StatusConfirmed, bk.Status())
		assert.Equal(t, bookingDomain.PaymentPaid, bk.PaymentStatus())

		// The vehicle stays held through confirmation.
		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.False(t, v.Available())
	})

	t.Run("stale event for a cancelled booking leaves booking and flag alone", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		first, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)
		_, err = f.service.CancelBooking(ctx, uuid.New(), true, first.ID, "fleet maintenance")
		require.NoError(t, err)

		// A new booking takes the vehicle before the late payment event lands.
		_, err = f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)

		err = f.service.HandlePaymentCompleted(ctx, first.ID)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))

		bk, err := f.bookings.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, bookingDomain.StatusCancelled, bk.Status())
		assert.Equal(t, bookingDomain.PaymentPending, bk.PaymentStatus())

		v, err := f.vehicles.FindByID(ctx, f.vehicleID)
		require.NoError(t, err)
		assert.False(t, v.Available())

		// With the hold intact, a third booking on the same dates still conflicts.
		_, err = f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.Error(t, err)
		assert.Equal(t, domain.CodeConflict, domain.CodeOf(err))
	})

	t.Run("duplicate delivery for a confirmed booking is rejected", func(t *testing.T) {
		f := newServiceFixture(t)
		start := f.now.Add(72 * time.Hour)

		dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
		require.NoError(t, err)
		require.NoError(t, f.service.HandlePaymentCompleted(ctx, dto.ID))

		events := len(f.publisher.types())
		err = f.service.HandlePaymentCompleted(ctx, dto.ID)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err))
		assert.Len(t, f.publisher.types(), events)

		bk, err := f.bookings.FindByID(ctx, dto.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), bk.Version())
	})
}

func TestBookingService_GetBookingStats(t *testing.T) {
	ctx := context.Background()

	f := newServiceFixture(t)
	adminID := uuid.New()
	start := f.now.Add(72 * time.Hour)

	dto, err := f.service.CreateBooking(ctx, uuid.New(), f.createRequest(start, start.Add(48*time.Hour)))
	require.NoError(t, err)

	for _, status := range []string{"confirmed", "active", "completed"} {
		_, err = f.service.TransitionBooking(ctx, adminID, true, dto.ID, status, "")
		require.NoError(t, err)
	}

	stats, err := f.service.GetBookingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus["completed"])
	assert.Equal(t, int64(10000), stats.TotalRevenueCents)
}
