package catalog

import (
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// Demo returns the demo catalog used when the durable store is empty or
// unavailable: two movies, two rooms and three screenings in the next two
// days relative to now.
func Demo(now time.Time) ([]model.Movie, []model.Room, []model.Screening) {
	movies := []model.Movie{
		{
			ID: 1, Title: "Inception", Duration: 148,
			Description: "A thief who steals corporate secrets through the use of dream-sharing technology.",
			Genre:       "Sci-Fi", Director: "Christopher Nolan", ReleaseYear: 2010, Language: "English",
		},
		{
			ID: 2, Title: "The Shawshank Redemption", Duration: 142,
			Description: "Two imprisoned men bond over a number of years.",
			Genre:       "Drama", Director: "Frank Darabont", ReleaseYear: 1994, Language: "English",
		},
	}
	rooms := []model.Room{
		{ID: 1, Name: "Sala 1", Rows: 10, SeatsPerRow: 15},
		{ID: 2, Name: "Sala 2", Rows: 8, SeatsPerRow: 12},
	}
	at := func(days, hour int) time.Time {
		d := now.AddDate(0, 0, days)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
	}
	screenings := []model.Screening{
		{ID: 1, MovieID: 1, RoomID: 1, StartsAt: at(1, 18), TicketPrice: 25.0},
		{ID: 2, MovieID: 1, RoomID: 1, StartsAt: at(1, 21), TicketPrice: 25.0},
		{ID: 3, MovieID: 2, RoomID: 2, StartsAt: at(2, 19), TicketPrice: 22.0},
	}
	return movies, rooms, screenings
}
