package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"moviecatalog/pkg/models"
)

var csvHeader = []string{
	"id", "title", "year", "genre", "director", "description",
	"poster_url", "average_rating", "review_count", "created_at",
}

// WriteCSV writes one row per movie, in the given order.
func WriteCSV(out io.Writer, movies []models.Movie) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range movies {
		if err := w.Write([]string{
			strconv.Itoa(m.ID),
			m.Title,
			strconv.Itoa(m.Year),
			m.Genre,
			m.Director,
			m.Description,
			m.PosterURL,
			strconv.FormatFloat(m.AverageRating(), 'f', 1, 64),
			strconv.Itoa(len(m.Reviews)),
			m.CreatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// SaveCSV writes the CSV export to path, creating parent directories.
func SaveCSV(path string, movies []models.Movie) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, movies); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
