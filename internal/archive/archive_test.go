package archive_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"moviecatalog/internal/archive"
	"moviecatalog/internal/catalog"
	"moviecatalog/pkg/database"
)

func TestWriteCSV(t *testing.T) {
	movies := catalog.NewSeeded().ListAll()

	var buf bytes.Buffer
	if err := archive.WriteCSV(&buf, movies); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][9] != "created_at" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	first := rows[1]
	if first[1] != "Inception" || first[7] != "4.5" || first[8] != "2" {
		t.Fatalf("unexpected first row: %v", first)
	}
}

func TestSaveCSVCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "movies.csv")
	if err := archive.SaveCSV(path, catalog.NewSeeded().ListAll()); err != nil {
		t.Fatalf("save csv: %v", err)
	}
}

func TestExportSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store := catalog.NewSeeded()

	if _, err := archive.ExportSQLite(ctx, path, store.ListAll()); err != nil {
		t.Fatalf("export: %v", err)
	}
	// a second export replaces rather than duplicates
	summaries, err := archive.ExportSQLite(ctx, path, store.ListAll())
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if len(summaries) != 4 || summaries[0].Title != "Inception" || summaries[0].ReviewCount != 2 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var movies, reviews int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&movies); err != nil {
		t.Fatalf("count movies: %v", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews); err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if movies != 4 || reviews != 3 {
		t.Fatalf("expected 4 movies and 3 reviews, got %d and %d", movies, reviews)
	}

	var avg float64
	if err := db.QueryRowContext(ctx, `SELECT average_rating FROM movies WHERE title = ?`, "Inception").Scan(&avg); err != nil {
		t.Fatalf("query avg: %v", err)
	}
	if avg != 4.5 {
		t.Fatalf("expected 4.5, got %v", avg)
	}
}
