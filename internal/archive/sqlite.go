package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"moviecatalog/pkg/database"
	"moviecatalog/pkg/models"
)

type movieRow struct {
	ID            int     `db:"id"`
	Title         string  `db:"title"`
	Year          int     `db:"year"`
	Genre         string  `db:"genre"`
	Director      string  `db:"director"`
	Description   string  `db:"description"`
	PosterURL     string  `db:"poster_url"`
	AverageRating float64 `db:"average_rating"`
	CreatedAt     string  `db:"created_at"`
}

type reviewRow struct {
	ID        string `db:"id"`
	MovieID   int    `db:"movie_id"`
	Position  int    `db:"position"`
	Author    string `db:"author"`
	Body      string `db:"body"`
	Rating    int    `db:"rating"`
	CreatedAt string `db:"created_at"`
}

// Summary is one archived movie with its review count.
type Summary struct {
	ID            int     `db:"id" json:"id"`
	Title         string  `db:"title" json:"title"`
	Genre         string  `db:"genre" json:"genre"`
	AverageRating float64 `db:"average_rating" json:"average_rating"`
	ReviewCount   int     `db:"review_count" json:"review_count"`
}

// SaveSQLite replaces the archive contents with the given snapshot.
func SaveSQLite(ctx context.Context, db *sqlx.DB, movies []models.Movie) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reviews`); err != nil {
		return fmt.Errorf("clear reviews: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("clear movies: %w", err)
	}

	for _, m := range movies {
		row := movieRow{
			ID:            m.ID,
			Title:         m.Title,
			Year:          m.Year,
			Genre:         m.Genre,
			Director:      m.Director,
			Description:   m.Description,
			PosterURL:     m.PosterURL,
			AverageRating: m.AverageRating(),
			CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO movies (id, title, year, genre, director, description, poster_url, average_rating, created_at)
            VALUES (:id, :title, :year, :genre, :director, :description, :poster_url, :average_rating, :created_at)
        `, row); err != nil {
			return fmt.Errorf("insert movie %d: %w", m.ID, err)
		}

		for i, r := range m.Reviews {
			rr := reviewRow{
				ID:        r.ID,
				MovieID:   m.ID,
				Position:  i,
				Author:    r.Author,
				Body:      r.Text,
				Rating:    r.Rating,
				CreatedAt: r.Date.UTC().Format(time.RFC3339),
			}
			if _, err := tx.NamedExecContext(ctx, `
                INSERT INTO reviews (id, movie_id, position, author, body, rating, created_at)
                VALUES (:id, :movie_id, :position, :author, :body, :rating, :created_at)
            `, rr); err != nil {
				return fmt.Errorf("insert review %s: %w", r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListSummaries reads back the archived movies in id order.
func ListSummaries(ctx context.Context, db *sqlx.DB) ([]Summary, error) {
	var out []Summary
	err := db.SelectContext(ctx, &out, `
        SELECT m.id, m.title, m.genre, m.average_rating, COUNT(r.id) AS review_count
        FROM movies m
        LEFT JOIN reviews r ON r.movie_id = m.id
        GROUP BY m.id
        ORDER BY m.id
    `)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	return out, nil
}

// ExportSQLite opens (or creates) the archive at path, saves the snapshot and
// returns what was written.
func ExportSQLite(ctx context.Context, path string, movies []models.Movie) ([]Summary, error) {
	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := SaveSQLite(ctx, db, movies); err != nil {
		return nil, err
	}
	return ListSummaries(ctx, db)
}
