// Package repository is the MySQL implementation of the durable store.
// Each table group has its own repo type; Store bundles them behind the
// persist.Store interface.
package repository

import (
	"errors"

	"github.com/iliyamo/cinema-udp-reservation/internal/persist"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = persist.ErrNotFound

// ErrConflict is returned when a write would collide with an existing
// row that holds different data.
var ErrConflict = errors.New("conflict")
