package feed

import (
	"time"

	"moviecatalog/pkg/models"
)

const (
	TypeMovieAdded  = "movie.added"
	TypeReviewAdded = "review.added"
)

type Event struct {
	Type     string    `json:"type"`
	MovieID  int       `json:"movie_id"`
	Title    string    `json:"title,omitempty"`
	Genre    string    `json:"genre,omitempty"`
	ReviewID string    `json:"review_id,omitempty"`
	Author   string    `json:"author,omitempty"`
	Rating   int       `json:"rating,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher receives catalog events after a successful write.
type Publisher interface {
	Publish(Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

func MovieAdded(m models.Movie) Event {
	return Event{
		Type:    TypeMovieAdded,
		MovieID: m.ID,
		Title:   m.Title,
		Genre:   m.Genre,
		At:      m.CreatedAt.UTC(),
	}
}

func ReviewAdded(m models.Movie, r models.Review) Event {
	return Event{
		Type:     TypeReviewAdded,
		MovieID:  m.ID,
		Title:    m.Title,
		ReviewID: r.ID,
		Author:   r.Author,
		Rating:   r.Rating,
		At:       r.Date.UTC(),
	}
}

// Multi publishes each event to every non-nil publisher in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
