package grpcserver_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/internal/grpcserver"
)

type recorder struct {
	mu     sync.Mutex
	events []feed.Event
}

func (r *recorder) Publish(e feed.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []feed.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feed.Event(nil), r.events...)
}

func dial(t *testing.T, pub feed.Publisher) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	svc := grpcserver.NewServer(catalog.NewSeeded(), auth.NewGate("admin", "pw"), pub)
	s := grpcserver.NewGRPCServer(svc)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func adminCtx(t *testing.T) context.Context {
	return metadata.AppendToOutgoingContext(testCtx(t), "authorization", auth.BasicHeader("admin", "pw"))
}

func TestHealth(t *testing.T) {
	conn := dial(t, nil)
	resp, err := healthpb.NewHealthClient(conn).Check(testCtx(t), &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}

func TestListAndGet(t *testing.T) {
	client := grpcserver.NewClient(dial(t, nil))
	ctx := testCtx(t)

	list, err := client.ListMovies(ctx, "", "Sci-Fi")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := list.GetFields()["total"].GetNumberValue(); got != 2 {
		t.Fatalf("expected 2 sci-fi movies, got %v", got)
	}

	m, err := client.GetMovie(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.GetFields()["title"].GetStringValue() != "Inception" {
		t.Fatalf("unexpected movie: %v", m)
	}
	if m.GetFields()["average_rating"].GetNumberValue() != 4.5 {
		t.Fatalf("unexpected average: %v", m.GetFields()["average_rating"])
	}

	_, err = client.GetMovie(ctx, 99)
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	genres, err := client.ListGenres(ctx)
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	if n := len(genres.GetFields()["items"].GetListValue().GetValues()); n != 3 {
		t.Fatalf("expected 3 genres, got %d", n)
	}
}

func TestAddMovieRequiresAuth(t *testing.T) {
	client := grpcserver.NewClient(dial(t, nil))
	fields := map[string]any{"title": "Arrival", "year": 2016, "genre": "Sci-Fi", "director": "Denis Villeneuve"}

	_, err := client.AddMovie(testCtx(t), fields)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	badCtx := metadata.AppendToOutgoingContext(testCtx(t), "authorization", auth.BasicHeader("admin", "nope"))
	_, err = client.AddMovie(badCtx, fields)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated for wrong secret, got %v", err)
	}
}

func TestAddMovieAndReview(t *testing.T) {
	rec := &recorder{}
	client := grpcserver.NewClient(dial(t, rec))
	ctx := adminCtx(t)

	m, err := client.AddMovie(ctx, map[string]any{"title": "Arrival", "year": 2016, "genre": "Sci-Fi", "director": "Denis Villeneuve"})
	if err != nil {
		t.Fatalf("add movie: %v", err)
	}
	if m.GetFields()["id"].GetNumberValue() != 5 || m.GetFields()["year"].GetNumberValue() != 2016 {
		t.Fatalf("unexpected movie: %v", m)
	}

	_, err = client.AddMovie(ctx, map[string]any{"title": "X", "year": "later", "genre": "Drama", "director": "Y"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	r, err := client.AddReview(ctx, map[string]any{"movie_id": 5, "text": "Language is a weapon.", "rating": 5})
	if err != nil {
		t.Fatalf("add review: %v", err)
	}
	if r.GetFields()["author"].GetStringValue() != catalog.AnonymousAuthor {
		t.Fatalf("unexpected author: %v", r.GetFields()["author"])
	}

	_, err = client.AddReview(ctx, map[string]any{"movie_id": 5, "text": "x", "rating": 0})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	_, err = client.AddReview(ctx, map[string]any{"movie_id": 77, "text": "x", "rating": 3})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	events := rec.snapshot()
	if len(events) != 2 || events[0].Type != feed.TypeMovieAdded || events[1].Type != feed.TypeReviewAdded {
		t.Fatalf("unexpected events: %+v", events)
	}
}
