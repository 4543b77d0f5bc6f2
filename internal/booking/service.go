// Package booking is the consistency core of the room booking backend.  It
// accepts or rejects stays, prices them and drives reservations through
// their state machine.  Each mutation is a single Store.InTx unit in which
// the room (or reservation) is locked, every rule is re-checked against the
// current state and the write is made; nothing read outside the unit is
// trusted.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/pricing"
)

// CreateRequest describes a new stay.
type CreateRequest struct {
	RoomID   uint64
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// DatesRequest replaces the dates and guest count of a pending reservation.
type DatesRequest struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// Service exposes the booking operations to the web layer.
type Service struct {
	store     Store
	authority identity.Authority
	publisher Publisher
	log       *zap.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher sends committed events to p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the core to its store and identity authority.  A nil
// logger is replaced by a no-op one.
func NewService(store Store, authority identity.Authority, log *zap.Logger, opts ...Option) *Service {
	if store == nil || authority == nil {
		panic("nil dependency passed to booking.NewService")
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:     store,
		authority: authority,
		publisher: nopPublisher{},
		log:       log,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create books a room for the requester.  The reservation starts Pending.
func (s *Service) Create(ctx context.Context, who identity.Identity, req CreateRequest) (model.Reservation, error) {
	checkIn, checkOut := model.DateOf(req.CheckIn), model.DateOf(req.CheckOut)
	var created model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		room, err := tx.LockRoom(ctx, req.RoomID)
		if err != nil {
			return err
		}
		total, err := s.checkStay(ctx, tx, room, checkIn, checkOut, req.Guests, 0)
		if err != nil {
			return err
		}
		created = model.Reservation{
			RoomID:          room.ID,
			RequesterID:     who.UserID,
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			Guests:          req.Guests,
			Status:          model.StatusPending,
			TotalPriceCents: total,
		}
		return tx.Insert(ctx, &created)
	})
	if err != nil {
		s.logFailure("create reservation", err, zap.Uint64("room_id", req.RoomID), zap.Uint64("user_id", who.UserID))
		return model.Reservation{}, err
	}
	s.log.Info("reservation created",
		zap.Uint64("id", created.ID),
		zap.Uint64("room_id", created.RoomID),
		zap.Uint64("user_id", created.RequesterID),
		zap.String("check_in", created.CheckIn.Format(model.DateLayout)),
		zap.String("check_out", created.CheckOut.Format(model.DateLayout)),
		zap.Int64("total_price_cents", created.TotalPriceCents),
	)
	s.publish(ctx, EventCreated, created, who)
	return created, nil
}

// UpdateDates re-dates a pending reservation on behalf of its requester and
// re-prices it.  The reservation does not conflict with itself.
func (s *Service) UpdateDates(ctx context.Context, who identity.Identity, id uint64, req DatesRequest) (model.Reservation, error) {
	// The room of a reservation never changes, so reading it outside the
	// unit only tells us which room lock to take first.
	peek, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	checkIn, checkOut := model.DateOf(req.CheckIn), model.DateOf(req.CheckOut)
	var updated model.Reservation
	err = s.store.InTx(ctx, func(tx Tx) error {
		room, err := tx.LockRoom(ctx, peek.RoomID)
		if err != nil {
			return err
		}
		cur, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		if cur.RequesterID != who.UserID {
			return fmt.Errorf("%w: only the requester may change the dates", ErrUnauthorized)
		}
		if cur.Status != model.StatusPending {
			return fmt.Errorf("%w: dates can only change while pending, reservation is %s", ErrInvalidTransition, cur.Status)
		}
		total, err := s.checkStay(ctx, tx, room, checkIn, checkOut, req.Guests, cur.ID)
		if err != nil {
			return err
		}
		cur.CheckIn = checkIn
		cur.CheckOut = checkOut
		cur.Guests = req.Guests
		cur.TotalPriceCents = total
		if err := tx.Update(ctx, &cur); err != nil {
			return err
		}
		updated = cur
		return nil
	})
	if err != nil {
		s.logFailure("update reservation dates", err, zap.Uint64("id", id), zap.Uint64("user_id", who.UserID))
		return model.Reservation{}, err
	}
	s.log.Info("reservation rescheduled",
		zap.Uint64("id", updated.ID),
		zap.String("check_in", updated.CheckIn.Format(model.DateLayout)),
		zap.String("check_out", updated.CheckOut.Format(model.DateLayout)),
		zap.Int64("total_price_cents", updated.TotalPriceCents),
	)
	s.publish(ctx, EventRescheduled, updated, who)
	return updated, nil
}

// ListMine returns the caller's reservations, newest first.
func (s *Service) ListMine(ctx context.Context, who identity.Identity) ([]model.Reservation, error) {
	return s.store.ListByRequester(ctx, who.UserID)
}

// Get returns a reservation to its requester or to an admin.
func (s *Service) Get(ctx context.Context, who identity.Identity, id uint64) (model.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if r.RequesterID != who.UserID && !s.authority.IsAdmin(who) {
		return model.Reservation{}, fmt.Errorf("%w: reservation belongs to another user", ErrUnauthorized)
	}
	return r, nil
}

// List returns all reservations matching f.  Admin only.
func (s *Service) List(ctx context.Context, who identity.Identity, f ListFilter) ([]model.Reservation, error) {
	if !s.authority.IsAdmin(who) {
		return nil, fmt.Errorf("%w: admin privilege required", ErrUnauthorized)
	}
	return s.store.ListReservations(ctx, f)
}

// Approve accepts a pending reservation and records the approving admin.
func (s *Service) Approve(ctx context.Context, admin identity.Identity, id uint64) (model.Reservation, error) {
	return s.adminTransition(ctx, admin, id, model.StatusApproved, EventApproved, func(r *model.Reservation) {
		approver := admin.UserID
		r.ApproverID = &approver
		r.DeclineReason = ""
	})
}

// Decline rejects a pending reservation with an optional reason.
func (s *Service) Decline(ctx context.Context, admin identity.Identity, id uint64, reason string) (model.Reservation, error) {
	return s.adminTransition(ctx, admin, id, model.StatusDeclined, EventDeclined, func(r *model.Reservation) {
		r.ApproverID = nil
		r.DeclineReason = reason
	})
}

// CheckIn marks the guest of an approved reservation as arrived.
func (s *Service) CheckIn(ctx context.Context, admin identity.Identity, id uint64) (model.Reservation, error) {
	return s.adminTransition(ctx, admin, id, model.StatusCheckedIn, EventCheckedIn, nil)
}

// CheckOut closes a stay.
func (s *Service) CheckOut(ctx context.Context, admin identity.Identity, id uint64) (model.Reservation, error) {
	return s.adminTransition(ctx, admin, id, model.StatusCheckedOut, EventCheckedOut, nil)
}

// Cancel withdraws a reservation.  Allowed for the requester and for admins.
func (s *Service) Cancel(ctx context.Context, who identity.Identity, id uint64) (model.Reservation, error) {
	return s.transition(ctx, who, id, model.StatusCancelled, EventCancelled, func(r model.Reservation) error {
		if r.RequesterID == who.UserID || s.authority.IsAdmin(who) {
			return nil
		}
		return fmt.Errorf("%w: only the requester or an admin may cancel", ErrUnauthorized)
	}, nil)
}

func (s *Service) adminTransition(ctx context.Context, admin identity.Identity, id uint64, to model.Status, ev EventType, apply func(*model.Reservation)) (model.Reservation, error) {
	if !s.authority.IsAdmin(admin) {
		err := fmt.Errorf("%w: admin privilege required", ErrUnauthorized)
		s.logFailure("reservation "+string(to), err, zap.Uint64("id", id), zap.Uint64("user_id", admin.UserID))
		return model.Reservation{}, err
	}
	return s.transition(ctx, admin, id, to, ev, nil, apply)
}

// transition is the read-check-write unit shared by every status change.
// The edge is validated first, then authorize runs against the fresh row.
func (s *Service) transition(
	ctx context.Context,
	who identity.Identity,
	id uint64,
	to model.Status,
	ev EventType,
	authorize func(model.Reservation) error,
	apply func(*model.Reservation),
) (model.Reservation, error) {
	var out model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		cur, err := tx.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(cur.Status, to) {
			return &TransitionError{From: cur.Status, To: to}
		}
		if authorize != nil {
			if err := authorize(cur); err != nil {
				return err
			}
		}
		from := cur.Status
		cur.Status = to
		if apply != nil {
			apply(&cur)
		}
		if err := tx.Update(ctx, &cur); err != nil {
			return err
		}
		s.log.Info("reservation status changed",
			zap.Uint64("id", cur.ID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Uint64("actor_id", who.UserID),
		)
		out = cur
		return nil
	})
	if err != nil {
		s.logFailure("reservation "+string(to), err, zap.Uint64("id", id), zap.Uint64("user_id", who.UserID))
		return model.Reservation{}, err
	}
	s.publish(ctx, ev, out, who)
	return out, nil
}

// checkStay runs the full validation set for a stay in room and returns
// its total price.  It must be called with the room lock held.
func (s *Service) checkStay(ctx context.Context, tx Tx, room model.Room, checkIn, checkOut time.Time, guests int, excludingID uint64) (int64, error) {
	if !room.IsActive {
		return 0, invalid(CodeRoomInactive, "room is not active")
	}
	if !checkIn.Before(checkOut) {
		return 0, invalid(CodeDateOrder, "check_out_date must be after check_in_date")
	}
	if guests < 1 {
		return 0, invalid(CodeGuests, "guests must be at least 1")
	}
	if guests > room.Capacity {
		return 0, invalid(CodeCapacity, fmt.Sprintf("guests exceed room capacity (%d > %d)", guests, room.Capacity))
	}
	overlap, err := tx.HasOverlap(ctx, room.ID, checkIn, checkOut, excludingID)
	if err != nil {
		return 0, err
	}
	if overlap {
		return 0, invalid(CodeOverlap, "room not available for selected dates")
	}
	total, err := pricing.Total(room.NightlyPriceCents, checkIn, checkOut)
	if err != nil {
		return 0, invalid(CodePrice, "total price exceeds the storable amount")
	}
	return total, nil
}

func (s *Service) publish(ctx context.Context, t EventType, r model.Reservation, who identity.Identity) {
	ev := Event{Type: t, Reservation: r, ActorID: who.UserID, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("failed to publish reservation event",
			zap.String("type", string(t)),
			zap.Uint64("id", r.ID),
			zap.Error(err),
		)
	}
}

// logFailure logs expected rejections at info level and everything else as
// an error.
func (s *Service) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrUnauthorized):
		s.log.Info(op+" rejected", fields...)
	default:
		s.log.Error(op+" failed", fields...)
	}
}
