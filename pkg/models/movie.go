package models

import (
	"math"
	"strings"
	"time"
)

const placeholderPosterBase = "https://via.placeholder.com/300x450?text="

type Movie struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	Genre       string    `json:"genre"`
	Director    string    `json:"director"`
	Description string    `json:"description"`
	PosterURL   string    `json:"poster_url"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"`
}

// AverageRating is the mean review rating rounded to one decimal place
// with ties going to the even digit, or 0 when the movie has no reviews.
func (m Movie) AverageRating() float64 {
	if len(m.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range m.Reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(m.Reviews))
	return math.RoundToEven(avg*10) / 10
}

// Clone returns a copy that shares no memory with m.
func (m Movie) Clone() Movie {
	out := m
	out.Reviews = make([]Review, len(m.Reviews))
	copy(out.Reviews, m.Reviews)
	return out
}

// PlaceholderPoster builds the generated poster URL used when a movie is
// added without one.
func PlaceholderPoster(title string) string {
	return placeholderPosterBase + strings.ReplaceAll(title, " ", "+")
}

// MovieView is the wire form of a movie, with the derived average rating.
type MovieView struct {
	Movie
	AverageRating float64 `json:"average_rating"`
}

func NewMovieView(m Movie) MovieView {
	return MovieView{Movie: m, AverageRating: m.AverageRating()}
}

func NewMovieViews(movies []Movie) []MovieView {
	out := make([]MovieView, 0, len(movies))
	for _, m := range movies {
		out = append(out, NewMovieView(m))
	}
	return out
}
