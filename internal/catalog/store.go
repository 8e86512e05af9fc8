package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"moviecatalog/pkg/models"
)

// AuthorPolicy decides what gets recorded as a review's author.
type AuthorPolicy string

const (
	// AuthorSupplied keeps the caller's author, falling back to
	// AnonymousAuthor when it is blank.
	AuthorSupplied AuthorPolicy = "supplied"
	// AuthorFixed ignores the caller and records FixedAuthor.
	AuthorFixed AuthorPolicy = "fixed"

	AnonymousAuthor = "Anonymous"
	FixedAuthor     = "You"
)

// ParseAuthorPolicy maps a config value to a policy. Unknown values fall
// back to AuthorSupplied.
func ParseAuthorPolicy(s string) AuthorPolicy {
	if AuthorPolicy(strings.ToLower(strings.TrimSpace(s))) == AuthorFixed {
		return AuthorFixed
	}
	return AuthorSupplied
}

// MovieInput carries the raw fields of a movie to add. Year stays text until
// the store parses it.
type MovieInput struct {
	Title       string  `json:"title" form:"title"`
	Year        Numeric `json:"year" form:"year"`
	Genre       string  `json:"genre" form:"genre"`
	Director    string  `json:"director" form:"director"`
	Description string  `json:"description" form:"description"`
	PosterURL   string  `json:"poster_url" form:"poster_url"`
}

func (in MovieInput) trimmed() MovieInput {
	return MovieInput{
		Title:       strings.TrimSpace(in.Title),
		Year:        Numeric(strings.TrimSpace(string(in.Year))),
		Genre:       strings.TrimSpace(in.Genre),
		Director:    strings.TrimSpace(in.Director),
		Description: strings.TrimSpace(in.Description),
		PosterURL:   strings.TrimSpace(in.PosterURL),
	}
}

// ReviewInput carries raw form values; Rating is parsed by the store so a
// non-numeric rating is reported as a ValidationError.
type ReviewInput struct {
	Author string  `json:"author" form:"author"`
	Text   string  `json:"text" form:"text"`
	Rating Numeric `json:"rating" form:"rating"`
}

func (in ReviewInput) trimmed() ReviewInput {
	return ReviewInput{
		Author: strings.TrimSpace(in.Author),
		Text:   strings.TrimSpace(in.Text),
		Rating: Numeric(strings.TrimSpace(string(in.Rating))),
	}
}

// Numeric holds a raw numeric field. It decodes from either a JSON number or
// a JSON string so that parsing failures surface as ValidationError.
type Numeric string

func (n *Numeric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	*n = Numeric(b)
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for creation and review dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAuthorPolicy sets how review authors are recorded.
func WithAuthorPolicy(p AuthorPolicy) Option {
	return func(s *Store) { s.authors = p }
}

// Store is the in-memory catalog. Movies keep insertion order and ids are
// never reused.
type Store struct {
	mu     sync.RWMutex
	movies []*models.Movie
	lastID int

	now      func() time.Time
	authors  AuthorPolicy
	validate *validator.Validate
}

// NewStore returns an empty store. Use NewSeeded for the sample catalog.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      time.Now,
		authors:  AuthorSupplied,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load appends trusted movies, such as the seed set, assigning fresh ids.
func (s *Store) Load(movies []models.Movie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range movies {
		m = m.Clone()
		s.lastID++
		m.ID = s.lastID
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now()
		}
		if m.PosterURL == "" {
			m.PosterURL = models.PlaceholderPoster(m.Title)
		}
		for i := range m.Reviews {
			if m.Reviews[i].ID == "" {
				m.Reviews[i].ID = uuid.NewString()
			}
			if m.Reviews[i].Date.IsZero() {
				m.Reviews[i].Date = m.CreatedAt
			}
		}
		s.movies = append(s.movies, &m)
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

func (s *Store) ListAll() []models.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m.Clone())
	}
	return out
}

// Search matches the query case-insensitively against title, director and
// genre. An empty query returns every movie.
func (s *Store) Search(query string) []models.Movie {
	if query == "" {
		return s.ListAll()
	}
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Movie, 0)
	for _, m := range s.movies {
		if strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Director), q) ||
			strings.Contains(strings.ToLower(m.Genre), q) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// FilterByGenre keeps movies whose genre equals genre ignoring case. An
// empty genre returns movies unchanged.
func FilterByGenre(movies []models.Movie, genre string) []models.Movie {
	if genre == "" {
		return movies
	}
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if strings.EqualFold(m.Genre, genre) {
			out = append(out, m)
		}
	}
	return out
}

// Query is the listing view: text search first, then the genre filter.
func (s *Store) Query(query, genre string) []models.Movie {
	return FilterByGenre(s.Search(query), genre)
}

func (s *Store) ListGenres() []string {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.movies))
	for _, m := range s.movies {
		seen[m.Genre] = struct{}{}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Get(id int) (models.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.findLocked(id)
	if m == nil {
		return models.Movie{}, &NotFoundError{MovieID: id}
	}
	return m.Clone(), nil
}

func (s *Store) AddMovie(in MovieInput) (models.Movie, error) {
	in, year, err := s.checkMovie(in)
	if err != nil {
		return models.Movie{}, err
	}

	poster := in.PosterURL
	if poster == "" {
		poster = models.PlaceholderPoster(in.Title)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	m := &models.Movie{
		ID:          s.lastID,
		Title:       in.Title,
		Year:        year,
		Genre:       in.Genre,
		Director:    in.Director,
		Description: in.Description,
		PosterURL:   poster,
		Reviews:     []models.Review{},
		CreatedAt:   s.now(),
	}
	s.movies = append(s.movies, m)
	return m.Clone(), nil
}

func (s *Store) AddReview(movieID int, in ReviewInput) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findLocked(movieID)
	if m == nil {
		return models.Review{}, &NotFoundError{MovieID: movieID}
	}

	in, rating, err := s.checkReview(in)
	if err != nil {
		return models.Review{}, err
	}

	r := models.Review{
		ID:     uuid.NewString(),
		Author: s.authorFor(in.Author),
		Text:   in.Text,
		Rating: rating,
		Date:   s.now(),
	}
	m.Reviews = append(m.Reviews, r)
	return r, nil
}

func (s *Store) authorFor(supplied string) string {
	if s.authors == AuthorFixed {
		return FixedAuthor
	}
	if supplied == "" {
		return AnonymousAuthor
	}
	return supplied
}

func (s *Store) findLocked(id int) *models.Movie {
	for _, m := range s.movies {
		if m.ID == id {
			return m
		}
	}
	return nil
}
