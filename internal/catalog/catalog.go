// Package catalog holds the reference data of a run: movies, rooms and
// screenings.  A Store is built once at startup and is read-only
// afterwards, so it needs no locking.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

var (
	ErrMovieNotFound     = errors.New("movie not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrScreeningNotFound = errors.New("screening not found")
)

// Store indexes catalog entities by ID.
type Store struct {
	movies     []model.Movie
	moviesByID map[int]model.Movie
	rooms      map[int]model.Room
	screenings []model.Screening
	byID       map[int]model.Screening
}

// New validates the references between entities and builds the indexes.
// Screenings are kept ordered by start time, then ID.
func New(movies []model.Movie, rooms []model.Room, screenings []model.Screening) (*Store, error) {
	s := &Store{
		moviesByID: make(map[int]model.Movie, len(movies)),
		rooms:      make(map[int]model.Room, len(rooms)),
		byID:       make(map[int]model.Screening, len(screenings)),
	}
	for _, m := range movies {
		if _, dup := s.moviesByID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate movie id %d", m.ID)
		}
		s.moviesByID[m.ID] = m
		s.movies = append(s.movies, m)
	}
	for _, r := range rooms {
		if _, dup := s.rooms[r.ID]; dup {
			return nil, fmt.Errorf("duplicate room id %d", r.ID)
		}
		if r.Rows < 1 || r.SeatsPerRow < 1 {
			return nil, fmt.Errorf("room %d: invalid dimensions %dx%d", r.ID, r.Rows, r.SeatsPerRow)
		}
		s.rooms[r.ID] = r
	}
	for _, sc := range screenings {
		if _, dup := s.byID[sc.ID]; dup {
			return nil, fmt.Errorf("duplicate screening id %d", sc.ID)
		}
		if _, ok := s.moviesByID[sc.MovieID]; !ok {
			return nil, fmt.Errorf("screening %d: %w: %d", sc.ID, ErrMovieNotFound, sc.MovieID)
		}
		if _, ok := s.rooms[sc.RoomID]; !ok {
			return nil, fmt.Errorf("screening %d: %w: %d", sc.ID, ErrRoomNotFound, sc.RoomID)
		}
		s.byID[sc.ID] = sc
		s.screenings = append(s.screenings, sc)
	}
	sort.SliceStable(s.movies, func(i, j int) bool { return s.movies[i].ID < s.movies[j].ID })
	sort.SliceStable(s.screenings, func(i, j int) bool {
		a, b := s.screenings[i], s.screenings[j]
		if !a.StartsAt.Equal(b.StartsAt) {
			return a.StartsAt.Before(b.StartsAt)
		}
		return a.ID < b.ID
	})
	return s, nil
}

// Movies returns all movies ordered by ID.
func (s *Store) Movies() []model.Movie {
	return append([]model.Movie(nil), s.movies...)
}

// Movie looks a movie up by ID.
func (s *Store) Movie(id int) (model.Movie, error) {
	m, ok := s.moviesByID[id]
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	return m, nil
}

// Room looks a room up by ID.
func (s *Store) Room(id int) (model.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return model.Room{}, ErrRoomNotFound
	}
	return r, nil
}

// Rooms returns a copy of the room index.
func (s *Store) Rooms() map[int]model.Room {
	out := make(map[int]model.Room, len(s.rooms))
	for id, r := range s.rooms {
		out[id] = r
	}
	return out
}

// Screenings lists screenings, optionally only those of one movie.  An
// unknown movie ID yields an empty list.
func (s *Store) Screenings(movieID *int) []model.Screening {
	out := make([]model.Screening, 0, len(s.screenings))
	for _, sc := range s.screenings {
		if movieID != nil && sc.MovieID != *movieID {
			continue
		}
		out = append(out, sc)
	}
	return out
}

// Screening looks a screening up by ID.
func (s *Store) Screening(id int) (model.Screening, error) {
	sc, ok := s.byID[id]
	if !ok {
		return model.Screening{}, ErrScreeningNotFound
	}
	return sc, nil
}

// ScreeningDetail is a screening joined with the names a client needs
// to display it.
type ScreeningDetail struct {
	model.Screening
	MovieTitle  string `json:"movie_title"`
	RoomName    string `json:"room_name"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

// Detail joins a screening with its movie and room.
func (s *Store) Detail(sc model.Screening) ScreeningDetail {
	d := ScreeningDetail{Screening: sc}
	if m, ok := s.moviesByID[sc.MovieID]; ok {
		d.MovieTitle = m.Title
	}
	if r, ok := s.rooms[sc.RoomID]; ok {
		d.RoomName = r.Name
		d.Rows = r.Rows
		d.SeatsPerRow = r.SeatsPerRow
	}
	return d
}
