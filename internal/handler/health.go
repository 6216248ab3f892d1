package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness together with the number of write-behind
// records that never reached the database.  A non-zero count does not
// fail the probe: the in-memory state is still authoritative.
func (h *GatewayHandler) Health(c echo.Context) error {
	pending := 0
	if h.Divergences != nil {
		pending = len(h.Divergences.Divergences())
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "divergences": pending})
}
