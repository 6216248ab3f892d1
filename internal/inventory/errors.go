package inventory

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

var (
	// ErrInvalidSeatPosition matches any *InvalidSeatPositionError.
	ErrInvalidSeatPosition = errors.New("invalid seat position")
	// ErrSeatUnavailable matches any *SeatUnavailableError.
	ErrSeatUnavailable = errors.New("seat unavailable")
	// ErrUnknownScreening is returned when no grid exists for a screening.
	ErrUnknownScreening = errors.New("unknown screening")
)

// InvalidSeatPositionError reports a row or number outside the room.
type InvalidSeatPositionError struct {
	ScreeningID int
	Position    model.Position
}

func (e *InvalidSeatPositionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidSeatPosition, e.Position)
}

func (e *InvalidSeatPositionError) Is(target error) bool { return target == ErrInvalidSeatPosition }

// SeatUnavailableError names the first seat that blocked a claim.
type SeatUnavailableError struct {
	ScreeningID int
	Position    model.Position
}

func (e *SeatUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSeatUnavailable, e.Position)
}

func (e *SeatUnavailableError) Is(target error) bool { return target == ErrSeatUnavailable }
