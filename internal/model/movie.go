package model

// Movie is an immutable catalog entry.  Movies are loaded once at
// startup and never mutated afterwards; screenings refer to them by ID.
//
// Fields:
//  ID          – catalog identifier.
//  Title       – display title.
//  Duration    – running time in minutes.
//  Description – short synopsis.
//  Genre       – free-form genre label.
//  Director    – director name.
//  ReleaseYear – year of first release.
//  Language    – spoken language.
type Movie struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Director    string `json:"director"`
	ReleaseYear int    `json:"release_year"`
	Language    string `json:"language"`
}
