package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/internal/server"
)

const (
	testUser   = "admin"
	testSecret = "test-secret"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return server.NewRouter(server.Deps{
		Store: catalog.NewSeeded(),
		Gate:  auth.NewGate(testUser, testSecret),
		Hub:   feed.NewHub(0),
	})
}

func do(r http.Handler, method, path, body string, admin bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if admin {
		req.SetBasicAuth(testUser, testSecret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodGet, "/health", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected application/json, got %s", ct)
	}
	var body struct {
		Status string `json:"status"`
		Movies int    `json:"movies"`
	}
	decode(t, w, &body)
	if body.Status != "ok" || body.Movies != 4 {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestCorrelationID(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodGet, "/health", "", false)
	if w.Header().Get(server.HeaderCorrelationID) == "" {
		t.Fatal("expected a generated correlation id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(server.HeaderCorrelationID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(server.HeaderCorrelationID); got != "abc-123" {
		t.Fatalf("expected echoed correlation id, got %q", got)
	}
}

type movieBody struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Year          int     `json:"year"`
	PosterURL     string  `json:"poster_url"`
	AverageRating float64 `json:"average_rating"`
}

func TestListMovies(t *testing.T) {
	r := newRouter(t)

	var all struct {
		Total int         `json:"total"`
		Items []movieBody `json:"items"`
	}
	decode(t, do(r, http.MethodGet, "/api/movies", "", false), &all)
	if all.Total != 4 || len(all.Items) != 4 {
		t.Fatalf("expected 4 movies, got %+v", all)
	}
	if all.Items[0].Title != "Inception" || all.Items[0].AverageRating != 4.5 {
		t.Fatalf("unexpected first movie: %+v", all.Items[0])
	}

	var scifi struct {
		Total int `json:"total"`
	}
	decode(t, do(r, http.MethodGet, "/api/movies?genre=sci-fi", "", false), &scifi)
	if scifi.Total != 2 {
		t.Fatalf("expected 2 sci-fi movies, got %d", scifi.Total)
	}

	var nolan struct {
		Total int `json:"total"`
	}
	decode(t, do(r, http.MethodGet, "/api/movies?q=nolan", "", false), &nolan)
	if nolan.Total != 2 {
		t.Fatalf("expected 2 Nolan movies, got %d", nolan.Total)
	}
}

func TestGetMovieNotFound(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodGet, "/api/movies/99", "", false)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/api/movies/abc", "", false)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGenres(t *testing.T) {
	r := newRouter(t)
	var body struct {
		Items []string `json:"items"`
	}
	decode(t, do(r, http.MethodGet, "/api/genres", "", false), &body)
	want := []string{"Biography", "Drama", "Sci-Fi"}
	if strings.Join(body.Items, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, body.Items)
	}
}

func TestCreateMovieRequiresAdmin(t *testing.T) {
	r := newRouter(t)
	payload := `{"title":"Dune","year":"2024","genre":"Sci-Fi","director":"Denis Villeneuve"}`

	w := do(r, http.MethodPost, "/api/movies", payload, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate challenge")
	}

	var list struct {
		Total int `json:"total"`
	}
	decode(t, do(r, http.MethodGet, "/api/movies", "", false), &list)
	if list.Total != 4 {
		t.Fatalf("unauthorized write must not mutate, got %d movies", list.Total)
	}
}

func TestCreateMovie(t *testing.T) {
	r := newRouter(t)
	payload := `{"title":"Dune: Part Two","year":2024,"genre":"Sci-Fi","director":"Denis Villeneuve"}`

	w := do(r, http.MethodPost, "/api/movies", payload, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var m movieBody
	decode(t, w, &m)
	if m.ID != 5 || m.Year != 2024 || m.AverageRating != 0 {
		t.Fatalf("unexpected movie: %+v", m)
	}
	if m.PosterURL != "https://via.placeholder.com/300x450?text=Dune:+Part+Two" {
		t.Fatalf("unexpected poster: %s", m.PosterURL)
	}

	if w := do(r, http.MethodGet, "/api/movies/5", "", false); w.Code != http.StatusOK {
		t.Fatalf("expected new movie to be readable, got %d", w.Code)
	}
}

func TestCreateMovieValidation(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodPost, "/api/movies", `{"title":"X","year":"soon","genre":"Drama","director":"Y"}`, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	decode(t, w, &body)
	if body.Field != "year" {
		t.Fatalf("expected year field, got %+v", body)
	}

	w = do(r, http.MethodPost, "/api/movies", `{not json`, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", w.Code)
	}
}

func TestReviews(t *testing.T) {
	r := newRouter(t)

	w := do(r, http.MethodPost, "/api/movies/3/reviews", `{"author":"","text":"Hope.","rating":5}`, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var review struct {
		ID     string `json:"id"`
		Author string `json:"author"`
		Rating int    `json:"rating"`
	}
	decode(t, w, &review)
	if review.ID == "" || review.Author != catalog.AnonymousAuthor || review.Rating != 5 {
		t.Fatalf("unexpected review: %+v", review)
	}

	var list struct {
		AverageRating float64           `json:"average_rating"`
		Items         []json.RawMessage `json:"items"`
	}
	decode(t, do(r, http.MethodGet, "/api/movies/3/reviews", "", false), &list)
	if list.AverageRating != 5 || len(list.Items) != 1 {
		t.Fatalf("unexpected reviews: %+v", list)
	}

	if w := do(r, http.MethodPost, "/api/movies/3/reviews", `{"text":"x","rating":9}`, true); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out of range rating, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/movies/99/reviews", `{"text":"x","rating":3}`, true); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown movie, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/movies/3/reviews", `{"text":"x","rating":3}`, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}
}

func TestExportCSV(t *testing.T) {
	r := newRouter(t)
	w := do(r, http.MethodGet, "/api/export.csv", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[0], "id,title,year") {
		t.Fatalf("unexpected csv: %q", w.Body.String())
	}
}

func TestRecentFeed(t *testing.T) {
	r := newRouter(t)
	payload := `{"title":"Arrival","year":2016,"genre":"Sci-Fi","director":"Denis Villeneuve"}`
	if w := do(r, http.MethodPost, "/api/movies", payload, true); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var body struct {
		Total int          `json:"total"`
		Items []feed.Event `json:"items"`
	}
	decode(t, do(r, http.MethodGet, "/api/feed/recent", "", false), &body)
	if body.Total != 1 || body.Items[0].Type != feed.TypeMovieAdded || body.Items[0].Title != "Arrival" {
		t.Fatalf("unexpected feed: %+v", body)
	}
}
