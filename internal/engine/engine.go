// Package engine coordinates reservations.  It owns the seat inventory and
// the ledger and guards both with one lock per screening, so creates and
// cancels on the same screening are linearizable while different
// screenings never contend.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-udp-reservation/internal/catalog"
	"github.com/iliyamo/cinema-udp-reservation/internal/inventory"
	"github.com/iliyamo/cinema-udp-reservation/internal/ledger"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// Recorder is told about every committed change while the screening lock
// is still held, so the changes of one reservation arrive in commit order.
// It must not block; the write-behind queue implements it.
type Recorder interface {
	RecordCreated(r model.Reservation)
	RecordCancelled(r model.Reservation)
}

// CreateRequest is a validated MAKE_RESERVATION payload.
type CreateRequest struct {
	ScreeningID   int
	Seats         []model.Position
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// CancelOutcome is the result of a cancel request.
type CancelOutcome int

const (
	Cancelled CancelOutcome = iota + 1
	NotFound
	AlreadyCancelled
)

func (o CancelOutcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case NotFound:
		return "not found"
	case AlreadyCancelled:
		return "already cancelled"
	}
	return fmt.Sprintf("CancelOutcome(%d)", int(o))
}

// Options tunes an Engine.  Zero values pick the defaults.
type Options struct {
	IdempotencyTTL        time.Duration // default 10m
	IdempotencyMaxEntries int           // default 10000
	Recorder              Recorder
	Logger                *log.Logger
	Now                   func() time.Time
	NewID                 func() string
}

// Engine is safe for concurrent use.
type Engine struct {
	catalog   *catalog.Store
	inventory *inventory.Inventory
	ledger    *ledger.Ledger
	locks     map[int]*sync.RWMutex
	idem      *idempotencyCache
	recorder  Recorder
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// New builds an engine over the catalog with every seat available.  The
// set of screenings, and therefore of locks, is fixed here.
func New(cat *catalog.Store, opts Options) (*Engine, error) {
	screenings := cat.Screenings(nil)
	inv, err := inventory.New(screenings, cat.Rooms())
	if err != nil {
		return nil, fmt.Errorf("build inventory: %w", err)
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = 10 * time.Minute
	}
	if opts.IdempotencyMaxEntries <= 0 {
		opts.IdempotencyMaxEntries = 10000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = log.New("engine")
	}
	e := &Engine{
		catalog:   cat,
		inventory: inv,
		ledger:    ledger.New(),
		locks:     make(map[int]*sync.RWMutex, len(screenings)),
		idem:      newIdempotencyCache(opts.IdempotencyMaxEntries, opts.IdempotencyTTL),
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	for _, s := range screenings {
		e.locks[s.ID] = &sync.RWMutex{}
	}
	return e, nil
}

// Catalog returns the read-only catalog the engine was built from.
func (e *Engine) Catalog() *catalog.Store { return e.catalog }

// CreateReservation claims the requested seats and records a CONFIRMED
// reservation.  A non-empty token makes the call idempotent: repeating the
// same request within the cache window returns the first outcome, success
// or rejection, without touching the inventory again.  Reusing the token
// for a different request fails with ErrCorrelationIDReused.
func (e *Engine) CreateReservation(ctx context.Context, token string, req CreateRequest) (model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return model.Reservation{}, err
	}
	if token == "" {
		return e.create(req)
	}
	res := e.idem.do(token, req.fingerprint(), func() outcome {
		r, err := e.create(req)
		return outcome{reservation: r, err: err}
	})
	return res.reservation, res.err
}

func (e *Engine) create(req CreateRequest) (model.Reservation, error) {
	sc, err := e.catalog.Screening(req.ScreeningID)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %d", ErrScreeningNotFound, req.ScreeningID)
	}
	if len(req.Seats) == 0 {
		return model.Reservation{}, ErrNoSeats
	}
	seats := make([]model.Seat, len(req.Seats))
	for i, p := range req.Seats {
		seats[i] = model.Seat{Row: p.Row, Number: p.Number, Status: model.SeatReserved}
	}
	if p, dup := model.DuplicatePosition(seats); dup {
		return model.Reservation{}, fmt.Errorf("%w: %s", ErrDuplicateSeat, p)
	}

	lock := e.locks[sc.ID]
	lock.Lock()
	if err := e.inventory.Claim(sc.ID, req.Seats); err != nil {
		lock.Unlock()
		return model.Reservation{}, err
	}
	r, err := e.confirm(sc, seats, req)
	if err != nil {
		if rerr := e.inventory.Release(sc.ID, req.Seats); rerr != nil {
			e.logger.Errorf("release after failed create on screening %d: %v", sc.ID, rerr)
		}
		lock.Unlock()
		return model.Reservation{}, err
	}
	if e.recorder != nil {
		e.recorder.RecordCreated(r)
	}
	lock.Unlock()

	e.logger.Infof("reservation %s confirmed: screening %d, %d seats, total %.2f", r.ID, r.ScreeningID, len(r.Seats), r.TotalPrice)
	return r, nil
}

// confirm builds the reservation and inserts it into the ledger.  The
// PENDING state never leaves this function.
func (e *Engine) confirm(sc model.Screening, seats []model.Seat, req CreateRequest) (model.Reservation, error) {
	r, err := model.NewReservation(e.newID(), sc, seats, req.CustomerName, req.CustomerEmail, req.CustomerPhone, e.now())
	if err != nil {
		return model.Reservation{}, err
	}
	if err := r.Confirm(); err != nil {
		return model.Reservation{}, err
	}
	if err := e.ledger.Insert(*r); err != nil {
		return model.Reservation{}, fmt.Errorf("record reservation: %w", err)
	}
	return r.Clone(), nil
}

// CancelReservation cancels a reservation and frees its seats.  Cancelling
// a reservation twice reports AlreadyCancelled and changes nothing, but a
// resend carrying the same token replays the first outcome.
func (e *Engine) CancelReservation(ctx context.Context, token, id string) (CancelOutcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if token == "" {
		return e.cancel(id)
	}
	res := e.idem.do(token, cancelFingerprint(id), func() outcome {
		out, err := e.cancel(id)
		return outcome{cancel: out, err: err}
	})
	return res.cancel, res.err
}

func (e *Engine) cancel(id string) (CancelOutcome, error) {
	existing, err := e.ledger.Get(id)
	if err != nil {
		return NotFound, fmt.Errorf("%w: %s", ErrReservationNotFound, id)
	}
	lock, ok := e.locks[existing.ScreeningID]
	if !ok {
		return 0, fmt.Errorf("reservation %s references unknown screening %d", id, existing.ScreeningID)
	}

	lock.Lock()
	r, err := e.ledger.Cancel(id)
	if errors.Is(err, ledger.ErrAlreadyCancelled) {
		lock.Unlock()
		return AlreadyCancelled, fmt.Errorf("%w: %s", ErrAlreadyCancelled, id)
	}
	if err != nil {
		lock.Unlock()
		return 0, fmt.Errorf("cancel %s: %w", id, err)
	}
	if err := e.inventory.Release(r.ScreeningID, model.Positions(r.Seats)); err != nil {
		lock.Unlock()
		return 0, fmt.Errorf("release seats of %s: %w", id, err)
	}
	if e.recorder != nil {
		e.recorder.RecordCancelled(r)
	}
	lock.Unlock()

	e.logger.Infof("reservation %s cancelled: screening %d, %d seats released", r.ID, r.ScreeningID, len(r.Seats))
	return Cancelled, nil
}

// Reservation returns one reservation by ID.
func (e *Engine) Reservation(id string) (model.Reservation, error) {
	r, err := e.ledger.Get(id)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %s", ErrReservationNotFound, id)
	}
	return r, nil
}

// FindByEmail lists a customer's reservations in creation order.  An
// unknown email yields an empty slice.
func (e *Engine) FindByEmail(email string) []model.Reservation {
	return e.ledger.FindByEmail(email)
}

// SeatMap snapshots a screening's availability under its read lock.
func (e *Engine) SeatMap(screeningID int) (inventory.SeatMap, error) {
	lock, ok := e.locks[screeningID]
	if !ok {
		return inventory.SeatMap{}, fmt.Errorf("%w: %d", ErrScreeningNotFound, screeningID)
	}
	lock.RLock()
	defer lock.RUnlock()
	return e.inventory.Snapshot(screeningID)
}

// Restore loads reservations read from the durable store into the ledger
// and claims the seats of every confirmed one.  It must run before the
// engine serves requests.  Reservations that cannot be restored are
// skipped and reported in the joined error; the rest are kept.
func (e *Engine) Restore(reservations []model.Reservation) error {
	var errs []error
	for _, r := range reservations {
		lock, ok := e.locks[r.ScreeningID]
		if !ok {
			errs = append(errs, fmt.Errorf("reservation %s: %w: %d", r.ID, ErrScreeningNotFound, r.ScreeningID))
			continue
		}
		lock.Lock()
		err := e.restoreLocked(r)
		lock.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("reservation %s: %w", r.ID, err))
		}
	}
	e.logger.Infof("restored %d of %d reservations", len(reservations)-len(errs), len(reservations))
	return errors.Join(errs...)
}

func (e *Engine) restoreLocked(r model.Reservation) error {
	if r.Status == model.StatusConfirmed {
		if err := e.inventory.Claim(r.ScreeningID, model.Positions(r.Seats)); err != nil {
			return err
		}
	}
	if err := e.ledger.Insert(r); err != nil {
		if r.Status == model.StatusConfirmed {
			_ = e.inventory.Release(r.ScreeningID, model.Positions(r.Seats))
		}
		return err
	}
	return nil
}

// Reservations lists every reservation in creation order.
func (e *Engine) Reservations() []model.Reservation { return e.ledger.All() }
