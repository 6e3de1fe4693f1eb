package usecase

import (
	"context"
	"sync"
	"time"

	"transit-booking/internal/data/entity"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/events"
	"transit-booking/pkg/database"
	"transit-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for the Postgres repositories. It
// reproduces the conditional-write semantics of the real SQL: each mutation
// checks the same WHERE conditions and reports rows affected, so the service
// tests exercise the same win/lose outcomes as the database would produce.
//
// Transactions are serialized with txMu and emulated with a state snapshot:
// Begin copies the store, Rollback restores it, Commit discards the copy.
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	routes       map[uuid.UUID]*entity.Route
	vehicles     map[uuid.UUID]*entity.Vehicle
	seats        map[uuid.UUID]*entity.Seat
	schedules    map[uuid.UUID]*entity.Schedule
	slots        map[slotKey]*entity.SeatSlot
	holds        map[uuid.UUID]*entity.Hold
	bookings     map[uuid.UUID]*entity.Booking
	bookingSeats []*entity.BookingSeat
}

type slotKey struct {
	scheduleID uuid.UUID
	seatID     uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		routes:    make(map[uuid.UUID]*entity.Route),
		vehicles:  make(map[uuid.UUID]*entity.Vehicle),
		seats:     make(map[uuid.UUID]*entity.Seat),
		schedules: make(map[uuid.UUID]*entity.Schedule),
		slots:     make(map[slotKey]*entity.SeatSlot),
		holds:     make(map[uuid.UUID]*entity.Hold),
		bookings:  make(map[uuid.UUID]*entity.Booking),
	}
}

type storeSnapshot struct {
	slots        map[slotKey]entity.SeatSlot
	holds        map[uuid.UUID]entity.Hold
	bookings     map[uuid.UUID]entity.Booking
	schedules    map[uuid.UUID]entity.Schedule
	bookingSeats []*entity.BookingSeat
}

func (s *memStore) snapshot() *storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &storeSnapshot{
		slots:        make(map[slotKey]entity.SeatSlot, len(s.slots)),
		holds:        make(map[uuid.UUID]entity.Hold, len(s.holds)),
		bookings:     make(map[uuid.UUID]entity.Booking, len(s.bookings)),
		schedules:    make(map[uuid.UUID]entity.Schedule, len(s.schedules)),
		bookingSeats: append([]*entity.BookingSeat(nil), s.bookingSeats...),
	}
	for k, v := range s.slots {
		snap.slots[k] = *v
	}
	for k, v := range s.holds {
		snap.holds[k] = *v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = *v
	}
	for k, v := range s.schedules {
		snap.schedules[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap *storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[slotKey]*entity.SeatSlot, len(snap.slots))
	for k, v := range snap.slots {
		v := v
		s.slots[k] = &v
	}
	s.holds = make(map[uuid.UUID]*entity.Hold, len(snap.holds))
	for k, v := range snap.holds {
		v := v
		s.holds[k] = &v
	}
	s.bookings = make(map[uuid.UUID]*entity.Booking, len(snap.bookings))
	for k, v := range snap.bookings {
		v := v
		s.bookings[k] = &v
	}
	s.schedules = make(map[uuid.UUID]*entity.Schedule, len(snap.schedules))
	for k, v := range snap.schedules {
		v := v
		s.schedules[k] = &v
	}
	s.bookingSeats = snap.bookingSeats
}

// ---- database.PgxIface ----

type memTx struct {
	store *memStore
	snap  *storeSnapshot
	done  bool
}

func (s *memStore) Begin(ctx context.Context) (database.Tx, error) {
	s.txMu.Lock()
	return &memTx{store: s, snap: s.snapshot()}, nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.restore(t.snap)
	t.store.txMu.Unlock()
	return nil
}

func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *memTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s *memStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (s *memStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (s *memStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close()                         {}

// ---- RouteRepository / VehicleRepository / SeatRepository ----

func (s *memStore) FindByID(ctx context.Context, id uuid.UUID) (*entity.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.routes[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

type memVehicleRepo struct{ store *memStore }

func (m memVehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if v, ok := m.store.vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

type memSeatRepo struct{ store *memStore }

func (m memSeatRepo) FindByVehicleID(ctx context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var seats []*entity.Seat
	for _, seat := range m.store.seats {
		if seat.VehicleID == vehicleID {
			cp := *seat
			seats = append(seats, &cp)
		}
	}
	return seats, nil
}

func (m memSeatRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var seats []*entity.Seat
	for _, id := range ids {
		if seat, ok := m.store.seats[id]; ok {
			cp := *seat
			seats = append(seats, &cp)
		}
	}
	return seats, nil
}

// ---- ScheduleRepository ----

type memScheduleRepo struct{ store *memStore }

func (m memScheduleRepo) CreateTx(ctx context.Context, tx database.Tx, schedule *entity.Schedule) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *schedule
	m.store.schedules[schedule.ID] = &cp
	return nil
}

func (m memScheduleRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if sc, ok := m.store.schedules[id]; ok {
		cp := *sc
		return &cp, nil
	}
	return nil, nil
}

func (m memScheduleRepo) FindActive(ctx context.Context, limit, offset int) ([]*entity.Schedule, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var schedules []*entity.Schedule
	for _, sc := range m.store.schedules {
		if sc.IsActive {
			cp := *sc
			schedules = append(schedules, &cp)
		}
	}
	return schedules, nil
}

func (m memScheduleRepo) CountActive(ctx context.Context) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var count int64
	for _, sc := range m.store.schedules {
		if sc.IsActive {
			count++
		}
	}
	return count, nil
}

// ---- SeatSlotRepository ----

type memSeatSlotRepo struct{ store *memStore }

func (m memSeatSlotRepo) CreateBatchTx(ctx context.Context, tx database.Tx, slots []*entity.SeatSlot) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, slot := range slots {
		cp := *slot
		m.store.slots[slotKey{slot.ScheduleID, slot.SeatID}] = &cp
	}
	return nil
}

func (m memSeatSlotRepo) FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.SeatSlot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var slots []*entity.SeatSlot
	for key, slot := range m.store.slots {
		if key.scheduleID == scheduleID {
			cp := *slot
			slots = append(slots, &cp)
		}
	}
	return slots, nil
}

func (m memSeatSlotRepo) FindSeatIDsBySchedule(ctx context.Context, scheduleID uuid.UUID) (map[uuid.UUID]bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	seatIDs := make(map[uuid.UUID]bool)
	for key := range m.store.slots {
		if key.scheduleID == scheduleID {
			seatIDs[key.seatID] = true
		}
	}
	return seatIDs, nil
}

func (m memSeatSlotRepo) FindSlot(ctx context.Context, scheduleID, seatID uuid.UUID) (*entity.SeatSlot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if slot, ok := m.store.slots[slotKey{scheduleID, seatID}]; ok {
		cp := *slot
		return &cp, nil
	}
	return nil, nil
}

func (m memSeatSlotRepo) HoldSeatsTx(ctx context.Context, tx database.Tx, scheduleID uuid.UUID, seatIDs []uuid.UUID, holdID, userID uuid.UUID, expiresAt time.Time) ([]uuid.UUID, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	now := time.Now()
	var blocked []uuid.UUID
	for _, seatID := range seatIDs {
		slot, ok := m.store.slots[slotKey{scheduleID, seatID}]
		if !ok {
			blocked = append(blocked, seatID)
			continue
		}
		available := slot.Status == entity.SeatSlotAvailable ||
			(slot.Status == entity.SeatSlotHeld && slot.HoldExpiresAt != nil && !slot.HoldExpiresAt.After(now))
		if !available {
			blocked = append(blocked, seatID)
			continue
		}
		hid, uid, exp := holdID, userID, expiresAt
		slot.Status = entity.SeatSlotHeld
		slot.HoldID = &hid
		slot.HeldBy = &uid
		slot.HoldExpiresAt = &exp
	}
	return blocked, nil
}

func (m memSeatSlotRepo) FindSeatIDsByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) ([]uuid.UUID, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var seatIDs []uuid.UUID
	for _, slot := range m.store.slots {
		if slot.Status == entity.SeatSlotHeld && slot.HoldID != nil && *slot.HoldID == holdID {
			seatIDs = append(seatIDs, slot.SeatID)
		}
	}
	return seatIDs, nil
}

func (m memSeatSlotRepo) ConfirmSeatsTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	now := time.Now()
	var flipped int64
	for _, slot := range m.store.slots {
		if slot.Status == entity.SeatSlotHeld && slot.HoldID != nil && *slot.HoldID == holdID &&
			slot.HoldExpiresAt != nil && slot.HoldExpiresAt.After(now) {
			bid := bookingID
			slot.Status = entity.SeatSlotBooked
			slot.BookingID = &bid
			slot.HoldID = nil
			slot.HeldBy = nil
			slot.HoldExpiresAt = nil
			flipped++
		}
	}
	return flipped, nil
}

func (m memSeatSlotRepo) ReleaseByHoldTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var released int64
	for _, slot := range m.store.slots {
		if slot.Status == entity.SeatSlotHeld && slot.HoldID != nil && *slot.HoldID == holdID {
			slot.Status = entity.SeatSlotAvailable
			slot.HoldID = nil
			slot.HeldBy = nil
			slot.HoldExpiresAt = nil
			released++
		}
	}
	return released, nil
}

func (m memSeatSlotRepo) FindExpiredHeld(ctx context.Context, now time.Time, limit int) ([]*entity.SeatSlot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var slots []*entity.SeatSlot
	for _, slot := range m.store.slots {
		if len(slots) >= limit {
			break
		}
		if slot.Status == entity.SeatSlotHeld && slot.HoldExpiresAt != nil && !slot.HoldExpiresAt.After(now) {
			cp := *slot
			slots = append(slots, &cp)
		}
	}
	return slots, nil
}

func (m memSeatSlotRepo) ReclaimSlot(ctx context.Context, scheduleID, seatID, holdID uuid.UUID, expiresAt time.Time) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	slot, ok := m.store.slots[slotKey{scheduleID, seatID}]
	if !ok || slot.Status != entity.SeatSlotHeld || slot.HoldID == nil ||
		*slot.HoldID != holdID || slot.HoldExpiresAt == nil || !slot.HoldExpiresAt.Equal(expiresAt) {
		return false, nil
	}
	slot.Status = entity.SeatSlotAvailable
	slot.HoldID = nil
	slot.HeldBy = nil
	slot.HoldExpiresAt = nil
	return true, nil
}

// ---- HoldRepository ----

type memHoldRepo struct{ store *memStore }

func (m memHoldRepo) CreateTx(ctx context.Context, tx database.Tx, hold *entity.Hold) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *hold
	m.store.holds[hold.ID] = &cp
	return nil
}

func (m memHoldRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Hold, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if hold, ok := m.store.holds[id]; ok {
		cp := *hold
		return &cp, nil
	}
	return nil, nil
}

func (m memHoldRepo) MarkConfirmedTx(ctx context.Context, tx database.Tx, holdID, bookingID uuid.UUID) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	hold, ok := m.store.holds[holdID]
	if !ok || hold.Status != entity.HoldStatusActive {
		return false, nil
	}
	bid := bookingID
	hold.Status = entity.HoldStatusConfirmed
	hold.BookingID = &bid
	return true, nil
}

func (m memHoldRepo) MarkReleasedTx(ctx context.Context, tx database.Tx, holdID uuid.UUID) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	hold, ok := m.store.holds[holdID]
	if !ok || hold.Status != entity.HoldStatusActive {
		return false, nil
	}
	hold.Status = entity.HoldStatusReleased
	return true, nil
}

func (m memHoldRepo) MarkExpired(ctx context.Context, holdID uuid.UUID, now time.Time) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	hold, ok := m.store.holds[holdID]
	if !ok || hold.Status != entity.HoldStatusActive || hold.ExpiresAt.After(now) {
		return false, nil
	}
	hold.Status = entity.HoldStatusExpired
	return true, nil
}

// ---- BookingRepository / BookingSeatRepository ----

type memBookingRepo struct{ store *memStore }

func (m memBookingRepo) CreateTx(ctx context.Context, tx database.Tx, booking *entity.Booking) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *booking
	m.store.bookings[booking.ID] = &cp
	return nil
}

func (m memBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if b, ok := m.store.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (m memBookingRepo) FindByHoldID(ctx context.Context, holdID uuid.UUID) (*entity.Booking, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, b := range m.store.bookings {
		if b.HoldID == holdID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (m memBookingRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var bookings []*entity.Booking
	for _, b := range m.store.bookings {
		if b.UserID == userID {
			cp := *b
			bookings = append(bookings, &cp)
		}
	}
	return bookings, nil
}

func (m memBookingRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var count int64
	for _, b := range m.store.bookings {
		if b.UserID == userID {
			count++
		}
	}
	return count, nil
}

type memBookingSeatRepo struct{ store *memStore }

func (m memBookingSeatRepo) CreateBatchTx(ctx context.Context, tx database.Tx, bookingSeats []*entity.BookingSeat) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, bs := range bookingSeats {
		cp := *bs
		m.store.bookingSeats = append(m.store.bookingSeats, &cp)
	}
	return nil
}

func (m memBookingSeatRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var out []*entity.BookingSeat
	for _, bs := range m.store.bookingSeats {
		if bs.BookingID == bookingID {
			cp := *bs
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- publisher / dedup doubles ----

type mockPublisher struct {
	mu     sync.Mutex
	events []events.BookingCreatedEvent
	err    error
}

func (p *mockPublisher) PublishBookingCreated(ctx context.Context, event events.BookingCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type mockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMockDeduper() *mockDeduper {
	return &mockDeduper{seen: make(map[string]bool)}
}

func (d *mockDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

// ---- fixtures ----

type fixture struct {
	store     *memStore
	repo      *repository.Repository
	publisher *mockPublisher
	config    *utils.Config

	routeID    uuid.UUID
	vehicleID  uuid.UUID
	scheduleID uuid.UUID
	seatIDs    []uuid.UUID
	userID     uuid.UUID
	otherUser  uuid.UUID
}

func newFixture() *fixture {
	store := newMemStore()
	now := time.Now()

	routeID := uuid.New()
	store.routes[routeID] = &entity.Route{
		BaseNoDelete:  entity.BaseNoDelete{ID: routeID, CreatedAt: now, UpdatedAt: now},
		StartLocation: "Jakarta",
		EndLocation:   "Bandung",
	}

	vehicleID := uuid.New()
	store.vehicles[vehicleID] = &entity.Vehicle{
		BaseNoDelete: entity.BaseNoDelete{ID: vehicleID, CreatedAt: now, UpdatedAt: now},
		PlateNumber:  "B 1234 XY",
		VehicleType:  entity.VehicleTypeBus,
		TotalSeats:   4,
		IsActive:     true,
	}

	seatIDs := make([]uuid.UUID, 4)
	for i := range seatIDs {
		id := uuid.New()
		seatIDs[i] = id
		store.seats[id] = &entity.Seat{
			BaseNoDelete: entity.BaseNoDelete{ID: id, CreatedAt: now, UpdatedAt: now},
			VehicleID:    vehicleID,
			SeatNumber:   "A" + string(rune('1'+i)),
			SeatRow:      "A",
			SeatColumn:   i + 1,
		}
	}

	scheduleID := uuid.New()
	store.schedules[scheduleID] = &entity.Schedule{
		BaseNoDelete:  entity.BaseNoDelete{ID: scheduleID, CreatedAt: now, UpdatedAt: now},
		RouteID:       routeID,
		VehicleID:     vehicleID,
		DepartureTime: now.Add(24 * time.Hour),
		ArrivalTime:   now.Add(27 * time.Hour),
		BasePrice:     150000,
		IsActive:      true,
	}

	for _, seatID := range seatIDs {
		store.slots[slotKey{scheduleID, seatID}] = &entity.SeatSlot{
			BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			ScheduleID:   scheduleID,
			SeatID:       seatID,
			Status:       entity.SeatSlotAvailable,
		}
	}

	repo := &repository.Repository{
		DB:          store,
		Route:       store,
		Vehicle:     memVehicleRepo{store},
		Seat:        memSeatRepo{store},
		Schedule:    memScheduleRepo{store},
		SeatSlot:    memSeatSlotRepo{store},
		Hold:        memHoldRepo{store},
		Booking:     memBookingRepo{store},
		BookingSeat: memBookingSeatRepo{store},
	}

	return &fixture{
		store:     store,
		repo:      repo,
		publisher: &mockPublisher{},
		config: &utils.Config{
			Reservation: utils.ReservationConfig{
				HoldTTL:          10 * time.Minute,
				SweepInterval:    time.Minute,
				SweepBatchSize:   500,
				OperationTimeout: 5 * time.Second,
			},
		},
		routeID:    routeID,
		vehicleID:  vehicleID,
		scheduleID: scheduleID,
		seatIDs:    seatIDs,
		userID:     uuid.New(),
		otherUser:  uuid.New(),
	}
}

func (f *fixture) reservationService() ReservationService {
	return NewReservationService(f.repo, f.config, f.publisher, zap.NewNop())
}

func (f *fixture) slot(seatID uuid.UUID) *entity.SeatSlot {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	cp := *f.store.slots[slotKey{f.scheduleID, seatID}]
	return &cp
}

func (f *fixture) hold(holdID uuid.UUID) *entity.Hold {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	cp := *f.store.holds[holdID]
	return &cp
}

// expireHold rewinds a hold's expiry so it reads as past due.
func (f *fixture) expireHold(holdID uuid.UUID) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	f.store.holds[holdID].ExpiresAt = past
	for _, slot := range f.store.slots {
		if slot.HoldID != nil && *slot.HoldID == holdID {
			p := past
			slot.HoldExpiresAt = &p
		}
	}
}
