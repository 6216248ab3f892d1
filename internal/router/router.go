// Package router registers the ops gateway routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-udp-reservation/internal/handler"
)

// Middlewares bundles the optional middleware applied to the gateway.
// Nil entries are skipped.
type Middlewares struct {
	RateLimit echo.MiddlewareFunc // every /v1 route
	Cache     echo.MiddlewareFunc // catalog reads only
}

// RegisterRoutes maps the gateway endpoints.  /healthz is never
// throttled so probes keep working under load.
func RegisterRoutes(e *echo.Echo, g *handler.GatewayHandler, mw Middlewares) {
	e.GET("/healthz", g.Health)

	v1 := e.Group("/v1")
	if mw.RateLimit != nil {
		v1.Use(mw.RateLimit)
	}

	// Movies and screenings never change while the process runs.
	var cached []echo.MiddlewareFunc
	if mw.Cache != nil {
		cached = append(cached, mw.Cache)
	}
	v1.GET("/movies", g.GetMovies, cached...)
	v1.GET("/screenings", g.GetScreenings, cached...)

	v1.GET("/screenings/:id/seats", g.GetSeats)
	v1.GET("/reservations", g.GetReservations)
	v1.POST("/envelope", g.PostEnvelope)
	v1.GET("/ops/divergences", g.GetDivergences)
}
