package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/model"
)

// MemoryStore is an in-process booking.Store.  It serialises work per room
// and per reservation with keyed mutexes that a unit holds until it ends,
// and buffers writes so a failed unit leaves no trace.  It also acts as a
// small room catalog for local runs and tests.
type MemoryStore struct {
	mu           sync.RWMutex // guards rooms, reservations and nextID
	rooms        map[uint64]model.Room
	reservations map[uint64]model.Reservation
	nextID       uint64

	roomLocks keyedMutex
	resLocks  keyedMutex
	now       func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:        make(map[uint64]model.Room),
		reservations: make(map[uint64]model.Reservation),
		now:          time.Now,
	}
}

// PutRoom adds or replaces a catalog entry.
func (s *MemoryStore) PutRoom(room model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
}

// InTx implements booking.Store.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{store: s, pending: make(map[uint64]model.Reservation)}
	defer tx.release()
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// GetReservation implements booking.Store.
func (s *MemoryStore) GetReservation(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, booking.ErrReservationNotFound
	}
	return detach(r), nil
}

// ListByRequester implements booking.Store.
func (s *MemoryStore) ListByRequester(_ context.Context, requesterID uint64) ([]model.Reservation, error) {
	return s.collect(func(r model.Reservation) bool { return r.RequesterID == requesterID }, 0), nil
}

// ListReservations implements booking.Store.
func (s *MemoryStore) ListReservations(_ context.Context, f booking.ListFilter) ([]model.Reservation, error) {
	return s.collect(func(r model.Reservation) bool {
		if f.Status != "" && r.Status != f.Status {
			return false
		}
		return f.RoomID == 0 || r.RoomID == f.RoomID
	}, f.Limit), nil
}

func (s *MemoryStore) collect(keep func(model.Reservation) bool, limit int) []model.Reservation {
	s.mu.RLock()
	out := make([]model.Reservation, 0)
	for _, r := range s.reservations {
		if keep(r) {
			out = append(out, detach(r))
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// memTx is one unit of work against a MemoryStore.
type memTx struct {
	store   *MemoryStore
	unlocks []func()
	rooms   map[uint64]bool
	held    map[uint64]bool
	pending map[uint64]model.Reservation
}

func (t *memTx) LockRoom(ctx context.Context, roomID uint64) (model.Room, error) {
	if err := ctx.Err(); err != nil {
		return model.Room{}, err
	}
	if !t.rooms[roomID] {
		t.unlocks = append(t.unlocks, t.store.roomLocks.lock(roomID))
		if t.rooms == nil {
			t.rooms = make(map[uint64]bool)
		}
		t.rooms[roomID] = true
	}
	t.store.mu.RLock()
	room, ok := t.store.rooms[roomID]
	t.store.mu.RUnlock()
	if !ok {
		return model.Room{}, booking.ErrRoomNotFound
	}
	return room, nil
}

func (t *memTx) LockReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	if !t.held[id] {
		t.unlocks = append(t.unlocks, t.store.resLocks.lock(id))
		if t.held == nil {
			t.held = make(map[uint64]bool)
		}
		t.held[id] = true
	}
	if r, ok := t.pending[id]; ok {
		return detach(r), nil
	}
	return t.store.GetReservation(ctx, id)
}

func (t *memTx) HasOverlap(_ context.Context, roomID uint64, checkIn, checkOut time.Time, excludingID uint64) (bool, error) {
	hit := func(r model.Reservation) bool {
		return r.RoomID == roomID && r.ID != excludingID && r.Status.Blocking() &&
			model.Overlaps(r.CheckIn, r.CheckOut, checkIn, checkOut)
	}
	for _, r := range t.pending {
		if hit(r) {
			return true, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for id, r := range t.store.reservations {
		if _, shadowed := t.pending[id]; shadowed {
			continue
		}
		if hit(r) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Insert(_ context.Context, r *model.Reservation) error {
	t.store.mu.Lock()
	t.store.nextID++
	r.ID = t.store.nextID
	t.store.mu.Unlock()
	now := t.store.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	t.pending[r.ID] = detach(*r)
	return nil
}

func (t *memTx) Update(ctx context.Context, r *model.Reservation) error {
	if _, ok := t.pending[r.ID]; !ok {
		if _, err := t.store.GetReservation(ctx, r.ID); err != nil {
			return err
		}
	}
	r.UpdatedAt = t.store.now().UTC()
	t.pending[r.ID] = detach(*r)
	return nil
}

func (t *memTx) commit() {
	if len(t.pending) == 0 {
		return
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, r := range t.pending {
		t.store.reservations[id] = r
	}
}

// detach copies the pointer fields of r so stored rows and the values
// handed to callers never alias.
func detach(r model.Reservation) model.Reservation {
	if r.ApproverID != nil {
		id := *r.ApproverID
		r.ApproverID = &id
	}
	return r
}

func (t *memTx) release() {
	for i := len(t.unlocks) - 1; i >= 0; i-- {
		t.unlocks[i]()
	}
	t.unlocks = nil
}

// keyedMutex hands out one mutex per key.  Entries are never evicted; the
// key space is bounded by the number of rooms and reservations.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func (k *keyedMutex) lock(key uint64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[uint64]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}
