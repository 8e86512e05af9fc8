package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/server"
)

func newTestAPI(t *testing.T, secret string) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := server.NewRouter(server.Deps{
		Store: catalog.NewSeeded(),
		Gate:  auth.NewGate("admin", "pw"),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiClient{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: srv.URL,
		user:    "admin",
		secret:  secret,
	}
}

func TestFetchCatalog(t *testing.T) {
	api := newTestAPI(t, "pw")
	movies, err := api.fetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(movies) != 4 {
		t.Fatalf("expected 4 movies, got %d", len(movies))
	}
	if len(movies[0].Reviews) != 2 || movies[0].AverageRating() != 4.5 {
		t.Fatalf("expected reviews to survive the round trip, got %+v", movies[0].Reviews)
	}
}

func TestListMoviesFilters(t *testing.T) {
	api := newTestAPI(t, "pw")
	resp, err := api.listMovies(context.Background(), "nolan", "biography")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 1 || resp.Items[0].Title != "Oppenheimer" {
		t.Fatalf("unexpected result: %+v", resp)
	}
}

func TestAddMovieWithCredentials(t *testing.T) {
	ctx := context.Background()
	payload := map[string]string{"title": "Arrival", "year": "2016", "genre": "Sci-Fi", "director": "Denis Villeneuve"}

	var created movieResponse
	if err := newTestAPI(t, "pw").doJSON(ctx, http.MethodPost, "/api/movies", true, payload, &created); err != nil {
		t.Fatalf("add: %v", err)
	}
	if created.ID != 5 || created.Year != 2016 {
		t.Fatalf("unexpected movie: %+v", created)
	}

	err := newTestAPI(t, "wrong").doJSON(ctx, http.MethodPost, "/api/movies", true, payload, nil)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestWebsocketURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":   "ws://localhost:8080/ws",
		"https://movies.example/": "wss://movies.example/ws",
	}
	for in, want := range cases {
		got, err := websocketURL(in, "/ws")
		if err != nil || got != want {
			t.Fatalf("websocketURL(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
