package catalog

import "moviecatalog/pkg/models"

// Seed returns the sample movies loaded at process start.
func Seed() []models.Movie {
	return []models.Movie{
		{
			Title:       "Inception",
			Year:        2010,
			Genre:       "Sci-Fi",
			Director:    "Christopher Nolan",
			Description: "A thief who steals corporate secrets through dream-sharing technology...",
			PosterURL:   "https://image.tmdb.org/t/p/w600_and_h900_bestv2/9gk7adHYeDkXNK0kuA7cfg5i9f8.jpg",
			Reviews: []models.Review{
				{Author: "Alice", Text: "Mind-bending masterpiece!", Rating: 5},
				{Author: "Bob", Text: "Confusing but brilliant", Rating: 4},
			},
		},
		{
			Title:       "Dune: Part Two",
			Year:        2024,
			Genre:       "Sci-Fi",
			Director:    "Denis Villeneuve",
			Description: "Paul Atreides unites with the Fremen...",
			PosterURL:   "https://image.tmdb.org/t/p/w600_and_h900_bestv2/8b8R8l88Qje9dn9OE8PY05Nxl1X.jpg",
			Reviews: []models.Review{
				{Author: "Cinephile", Text: "Visually stunning epic", Rating: 5},
			},
		},
		{
			Title:     "The Shawshank Redemption",
			Year:      1994,
			Genre:     "Drama",
			Director:  "Frank Darabont",
			PosterURL: "https://image.tmdb.org/t/p/w600_and_h900_bestv2/q6y0Go1tsGEsmtFryDOJo3dEmqu.jpg",
		},
		{
			Title:     "Oppenheimer",
			Year:      2023,
			Genre:     "Biography",
			Director:  "Christopher Nolan",
			PosterURL: "https://image.tmdb.org/t/p/w600_and_h900_bestv2/8Gxv8gSFCU0XGDykEGv7zR1n2ua.jpg",
		},
	}
}

// NewSeeded returns a store preloaded with Seed.
func NewSeeded(opts ...Option) *Store {
	s := NewStore(opts...)
	s.Load(Seed())
	return s
}
