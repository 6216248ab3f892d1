package engine

import (
	"errors"

	"github.com/iliyamo/cinema-udp-reservation/internal/inventory"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

var (
	ErrScreeningNotFound   = errors.New("screening not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyCancelled    = errors.New("reservation already cancelled")
	ErrNoSeats             = errors.New("at least one seat is required")
	// ErrCorrelationIDReused rejects a token already bound to another request.
	ErrCorrelationIDReused = errors.New("correlation id reused")

	// Seat errors come from the inventory and model packages; they are
	// re-exported so callers only depend on the engine.
	ErrSeatUnavailable     = inventory.ErrSeatUnavailable
	ErrInvalidSeatPosition = inventory.ErrInvalidSeatPosition
	ErrDuplicateSeat       = model.ErrDuplicateSeat
)
