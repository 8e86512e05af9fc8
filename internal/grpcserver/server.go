package grpcserver

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"moviecatalog/internal/auth"
	"moviecatalog/internal/catalog"
	"moviecatalog/internal/feed"
	"moviecatalog/pkg/models"
)

type Server struct {
	Store *catalog.Store
	Gate  *auth.Gate
	Feed  feed.Publisher
}

func NewServer(store *catalog.Store, gate *auth.Gate, pub feed.Publisher) *Server {
	if pub == nil {
		pub = feed.NopPublisher{}
	}
	return &Server{Store: store, Gate: gate, Feed: pub}
}

// NewGRPCServer builds a grpc.Server with the catalog, health and reflection
// services registered.
func NewGRPCServer(svc *Server, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(logUnary)}, opts...)
	s := grpc.NewServer(opts...)
	RegisterCatalogServer(s, svc)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s)
	return s
}

func (s *Server) ListMovies(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items := s.Store.Query(stringField(req, "q"), stringField(req, "genre"))
	list := make([]any, 0, len(items))
	for _, m := range items {
		list = append(list, movieMap(m))
	}
	return toStruct(map[string]any{"total": len(items), "items": list})
}

func (s *Server) GetMovie(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, ok := intField(req, "id")
	if !ok || id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}
	m, err := s.Store.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(movieMap(m))
}

func (s *Server) ListGenres(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	genres := s.Store.ListGenres()
	items := make([]any, 0, len(genres))
	for _, g := range genres {
		items = append(items, g)
	}
	return toStruct(map[string]any{"items": items})
}

func (s *Server) AddMovie(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	admin, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}

	m, err := s.Store.AddMovie(catalog.MovieInput{
		Title:       stringField(req, "title"),
		Year:        catalog.Numeric(stringField(req, "year")),
		Genre:       stringField(req, "genre"),
		Director:    stringField(req, "director"),
		Description: stringField(req, "description"),
		PosterURL:   stringField(req, "poster_url"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	log.Info().Int("movie_id", m.ID).Str("title", m.Title).Str("admin", admin).Msg("grpc: movie added")
	s.Feed.Publish(feed.MovieAdded(m))
	return toStruct(movieMap(m))
}

func (s *Server) AddReview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.authorize(ctx); err != nil {
		return nil, err
	}
	id, ok := intField(req, "movie_id")
	if !ok || id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "movie_id required")
	}

	r, err := s.Store.AddReview(id, catalog.ReviewInput{
		Author: stringField(req, "author"),
		Text:   stringField(req, "text"),
		Rating: catalog.Numeric(stringField(req, "rating")),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	if m, err := s.Store.Get(id); err == nil {
		s.Feed.Publish(feed.ReviewAdded(m, r))
	}
	return toStruct(reviewMap(r))
}

// authorize checks the "authorization" metadata against the gate and returns
// the admin username.
func (s *Server) authorize(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	for _, v := range md.Get("authorization") {
		if user, secret, ok := auth.ParseBasic(v); ok && s.Gate.Authorize(user, secret) {
			return user, nil
		}
	}
	log.Warn().Msg("grpc: admin authorization refused")
	return "", status.Error(codes.Unauthenticated, auth.ErrUnauthorized.Error())
}

func toStatus(err error) error {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Reason)
	case catalog.IsNotFound(err):
		return status.Error(codes.NotFound, "movie not found")
	default:
		log.Error().Err(err).Msg("grpc: unexpected store error")
		return status.Error(codes.Internal, "internal error")
	}
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response failed")
	}
	return out, nil
}

// stringField reads a field as text. Numbers are formatted without a
// fractional part when they are whole.
func stringField(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	default:
		return ""
	}
}

func intField(req *structpb.Struct, key string) (int, bool) {
	n, err := strconv.Atoi(stringField(req, key))
	return n, err == nil
}

func movieMap(m models.Movie) map[string]any {
	reviews := make([]any, 0, len(m.Reviews))
	for _, r := range m.Reviews {
		reviews = append(reviews, reviewMap(r))
	}
	return map[string]any{
		"id":             m.ID,
		"title":          m.Title,
		"year":           m.Year,
		"genre":          m.Genre,
		"director":       m.Director,
		"description":    m.Description,
		"poster_url":     m.PosterURL,
		"average_rating": m.AverageRating(),
		"review_count":   len(m.Reviews),
		"reviews":        reviews,
		"created_at":     m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func reviewMap(r models.Review) map[string]any {
	return map[string]any{
		"id":     r.ID,
		"author": r.Author,
		"text":   r.Text,
		"rating": r.Rating,
		"date":   r.Date.UTC().Format(time.RFC3339),
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.Info().
		Str("method", info.FullMethod).
		Str("code", status.Code(err).String()).
		Dur("duration", time.Since(start)).
		Msg("grpc_request")
	return resp, err
}
