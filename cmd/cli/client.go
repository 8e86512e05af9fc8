package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"moviecatalog/pkg/models"
)

type movieListResponse struct {
	Total int                `json:"total"`
	Items []models.MovieView `json:"items"`
}

type movieResponse = models.MovieView

type genreListResponse struct {
	Items []string `json:"items"`
}

type reviewListResponse struct {
	MovieID       int             `json:"movie_id"`
	AverageRating float64         `json:"average_rating"`
	Items         []models.Review `json:"items"`
}

type reviewResponse = models.Review

type apiClient struct {
	http    *http.Client
	baseURL string
	user    string
	secret  string
}

func (a *apiClient) doJSON(ctx context.Context, method, path string, admin bool, payload any, out any) error {
	endpoint := strings.TrimRight(a.baseURL, "/") + path

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.SetBasicAuth(a.user, a.secret)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed (%d): %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (a *apiClient) listMovies(ctx context.Context, query, genre string) (movieListResponse, error) {
	qv := url.Values{}
	if query != "" {
		qv.Set("q", query)
	}
	if genre != "" {
		qv.Set("genre", genre)
	}
	path := "/api/movies"
	if len(qv) > 0 {
		path += "?" + qv.Encode()
	}

	var resp movieListResponse
	err := a.doJSON(ctx, http.MethodGet, path, false, nil, &resp)
	return resp, err
}

// fetchCatalog returns the full catalog, reviews included.
func (a *apiClient) fetchCatalog(ctx context.Context) ([]models.Movie, error) {
	resp, err := a.listMovies(ctx, "", "")
	if err != nil {
		return nil, err
	}
	movies := make([]models.Movie, 0, len(resp.Items))
	for _, v := range resp.Items {
		movies = append(movies, v.Movie)
	}
	return movies, nil
}

func runFeedTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Info().Str("addr", addr).Msg("feed connected")
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		printLine(reader.Bytes(), pretty)
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

// runFeedUDP subscribes to the UDP feed and prints events until the
// connection fails.
func runFeedUDP(addr, name string) error {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	hello, _ := json.Marshal(map[string]string{"type": "subscribe", "name": name})
	if _, err := conn.Write(hello); err != nil {
		return err
	}
	defer func() {
		bye, _ := json.Marshal(map[string]string{"type": "unsubscribe"})
		_, _ = conn.Write(bye)
	}()

	log.Info().Str("addr", addr).Msg("feed subscribed")
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return err
		}
		printLine(buf[:n], true)
	}
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info().Str("url", wsURL).Msg("feed connected")
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		printLine(msg, true)
	}
}

func printLine(line []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Println(string(line))
		return
	}
	printJSON(obj)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("json")
	}
	fmt.Println(string(b))
}
