package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"moviecatalog/internal/archive"
	"moviecatalog/internal/auth"
	"moviecatalog/internal/grpcserver"
	"moviecatalog/pkg/database"
	"moviecatalog/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	utils.SetupLogger(os.Getenv("MOVIECAT_LOG_LEVEL"), true)
	defaults := utils.LoadClientConfig()

	global := flag.NewFlagSet("moviecat", flag.ExitOnError)
	baseURL := global.String("api", defaults.BaseURL, "API base URL")
	user := global.String("user", defaults.Username, "admin username")
	secret := global.String("secret", defaults.Secret, "admin secret (or MOVIECAT_ADMIN_SECRET)")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("parse flags")
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	api := &apiClient{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: *baseURL,
		user:    *user,
		secret:  *secret,
	}

	switch cmd {
	case "movies":
		handleMovies(ctx, api, sub, rest)
	case "genres":
		var resp genreListResponse
		if err := api.doJSON(ctx, http.MethodGet, "/api/genres", false, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("genres failed")
		}
		for _, g := range resp.Items {
			fmt.Println(g)
		}
	case "reviews":
		handleReviews(ctx, api, sub, rest)
	case "watch":
		handleWatch(api, sub, rest, defaults)
	case "export":
		handleExport(ctx, api, sub, rest)
	case "grpc":
		handleGrpc(ctx, defaults.GrpcAddr, *user, *secret, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleMovies(ctx context.Context, api *apiClient, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("movies list", flag.ExitOnError)
		query := fs.String("q", "", "search title, director or genre")
		genre := fs.String("genre", "", "genre filter")
		_ = fs.Parse(args)

		resp, err := api.listMovies(ctx, *query, *genre)
		if err != nil {
			log.Fatal().Err(err).Msg("list failed")
		}
		for _, m := range resp.Items {
			fmt.Printf("%3d  %-32s %d  %-10s ★ %.1f (%d)\n", m.ID, m.Title, m.Year, m.Genre, m.AverageRating, len(m.Reviews))
		}
		fmt.Printf("%d movie(s)\n", resp.Total)
	case "show":
		fs := flag.NewFlagSet("movies show", flag.ExitOnError)
		id := fs.Int("id", 0, "movie id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal().Msg("movie id is required")
		}

		var resp movieResponse
		if err := api.doJSON(ctx, http.MethodGet, "/api/movies/"+strconv.Itoa(*id), false, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("show failed")
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("movies add", flag.ExitOnError)
		title := fs.String("title", "", "title")
		year := fs.String("year", "", "release year")
		genre := fs.String("genre", "", "genre")
		director := fs.String("director", "", "director")
		description := fs.String("description", "", "description")
		poster := fs.String("poster", "", "poster URL")
		_ = fs.Parse(args)

		payload := map[string]string{
			"title":       *title,
			"year":        *year,
			"genre":       *genre,
			"director":    *director,
			"description": *description,
			"poster_url":  *poster,
		}
		var resp movieResponse
		if err := api.doJSON(ctx, http.MethodPost, "/api/movies", true, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("add failed")
		}
		fmt.Printf("✅ added movie %d: %s\n", resp.ID, resp.Title)
	default:
		log.Fatal().Msg("usage: moviecat movies <list|show|add>")
	}
}

func handleReviews(ctx context.Context, api *apiClient, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("reviews list", flag.ExitOnError)
		movieID := fs.Int("movie", 0, "movie id")
		_ = fs.Parse(args)
		if *movieID <= 0 {
			log.Fatal().Msg("movie id is required")
		}

		var resp reviewListResponse
		if err := api.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/movies/%d/reviews", *movieID), false, nil, &resp); err != nil {
			log.Fatal().Err(err).Msg("list reviews failed")
		}
		printJSON(resp)
	case "add":
		fs := flag.NewFlagSet("reviews add", flag.ExitOnError)
		movieID := fs.Int("movie", 0, "movie id")
		author := fs.String("author", "", "author name")
		text := fs.String("text", "", "review text")
		rating := fs.String("rating", "", "rating 1-5")
		_ = fs.Parse(args)
		if *movieID <= 0 {
			log.Fatal().Msg("movie id is required")
		}

		payload := map[string]string{"author": *author, "text": *text, "rating": *rating}
		var resp reviewResponse
		if err := api.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/movies/%d/reviews", *movieID), true, payload, &resp); err != nil {
			log.Fatal().Err(err).Msg("add review failed")
		}
		fmt.Printf("✅ review %s added by %s\n", resp.ID, resp.Author)
	default:
		log.Fatal().Msg("usage: moviecat reviews <list|add>")
	}
}

func handleWatch(api *apiClient, sub string, args []string, defaults utils.ClientConfig) {
	switch sub {
	case "ws", "":
		fs := flag.NewFlagSet("watch ws", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(api.baseURL, "/ws")
			if err != nil {
				log.Fatal().Err(err).Msg("ws url")
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	case "tcp":
		fs := flag.NewFlagSet("watch tcp", flag.ExitOnError)
		addr := fs.String("addr", defaults.FeedAddr, "TCP feed address")
		pretty := fs.Bool("pretty", true, "pretty print JSON events")
		_ = fs.Parse(args)
		for {
			if err := runFeedTCP(*addr, *pretty); err != nil {
				log.Warn().Err(err).Msg("feed disconnected")
			}
			time.Sleep(1 * time.Second)
		}
	case "udp":
		fs := flag.NewFlagSet("watch udp", flag.ExitOnError)
		addr := fs.String("addr", defaults.UDPAddr, "UDP feed address")
		name := fs.String("name", "moviecat-cli", "subscriber name")
		_ = fs.Parse(args)
		if err := runFeedUDP(*addr, *name); err != nil {
			log.Fatal().Err(err).Msg("watch failed")
		}
	default:
		log.Fatal().Msg("usage: moviecat watch <ws|tcp|udp>")
	}
}

func handleExport(ctx context.Context, api *apiClient, sub string, args []string) {
	switch sub {
	case "csv":
		fs := flag.NewFlagSet("export csv", flag.ExitOnError)
		out := fs.String("out", "data/movies.csv", "output CSV path")
		_ = fs.Parse(args)

		movies, err := api.fetchCatalog(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("export csv failed")
		}
		if err := archive.SaveCSV(*out, movies); err != nil {
			log.Fatal().Err(err).Msg("write csv failed")
		}
		log.Info().Int("movies", len(movies)).Str("path", *out).Msg("✅ exported")
	case "sqlite":
		fs := flag.NewFlagSet("export sqlite", flag.ExitOnError)
		out := fs.String("out", database.DefaultConfig().Path, "output SQLite path (or MOVIECAT_ARCHIVE_PATH)")
		_ = fs.Parse(args)

		movies, err := api.fetchCatalog(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("export sqlite failed")
		}
		summaries, err := archive.ExportSQLite(ctx, *out, movies)
		if err != nil {
			log.Fatal().Err(err).Msg("write sqlite failed")
		}
		for _, s := range summaries {
			fmt.Printf("%3d  %-32s %-10s ★ %.1f (%d)\n", s.ID, s.Title, s.Genre, s.AverageRating, s.ReviewCount)
		}
		log.Info().Int("movies", len(summaries)).Str("path", *out).Msg("✅ exported")
	default:
		log.Fatal().Msg("usage: moviecat export <csv|sqlite>")
	}
}

func handleGrpc(ctx context.Context, grpcAddr, user, secret, sub string, args []string) {
	fs := flag.NewFlagSet("grpc "+sub, flag.ExitOnError)
	addr := fs.String("addr", grpcAddr, "gRPC server address")
	query := fs.String("q", "", "search query (list)")
	genre := fs.String("genre", "", "genre filter (list) or genre (add)")
	title := fs.String("title", "", "title (add)")
	year := fs.String("year", "", "year (add)")
	director := fs.String("director", "", "director (add)")
	id := fs.Int("id", 0, "movie id (get, review)")
	author := fs.String("author", "", "author (review)")
	text := fs.String("text", "", "review text (review)")
	rating := fs.String("rating", "", "rating 1-5 (review)")
	_ = fs.Parse(args)

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("grpc dial")
	}
	defer conn.Close()
	client := grpcserver.NewClient(conn)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch sub {
	case "list":
		resp, err := client.ListMovies(ctx, *query, *genre)
		if err != nil {
			log.Fatal().Err(err).Msg("grpc list failed")
		}
		printJSON(resp.AsMap())
	case "get":
		resp, err := client.GetMovie(ctx, *id)
		if err != nil {
			log.Fatal().Err(err).Msg("grpc get failed")
		}
		printJSON(resp.AsMap())
	case "genres":
		resp, err := client.ListGenres(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("grpc genres failed")
		}
		printJSON(resp.AsMap())
	case "add":
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", auth.BasicHeader(user, secret))
		resp, err := client.AddMovie(ctx, map[string]any{
			"title":    *title,
			"year":     *year,
			"genre":    *genre,
			"director": *director,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("grpc add failed")
		}
		printJSON(resp.AsMap())
	case "review":
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", auth.BasicHeader(user, secret))
		resp, err := client.AddReview(ctx, map[string]any{
			"movie_id": *id,
			"author":   *author,
			"text":     *text,
			"rating":   *rating,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("grpc review failed")
		}
		printJSON(resp.AsMap())
	default:
		log.Fatal().Msg("usage: moviecat grpc <list|get|genres|add|review>")
	}
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("moviecat [-api URL] [-user NAME] [-secret SECRET] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  movies list|show|add")
	fmt.Println("  genres")
	fmt.Println("  reviews list|add")
	fmt.Println("  watch ws|tcp|udp")
	fmt.Println("  export csv|sqlite")
	fmt.Println("  grpc list|get|genres|add|review")
}
