package feed_test

import (
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"moviecatalog/internal/feed"
)

func TestUDPSubscriberReceivesEvents(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := feed.NewUDPServer("")
	done := make(chan error, 1)
	go func() { done <- srv.Serve(conn) }()

	client, err := net.DialUDP("udp", nil, conn.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	_ = client.SetReadDeadline(time.Now().Add(5 * time.Second))

	if _, err := client.Write([]byte(`{"type":"subscribe","name":"test"}`)); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if !strings.Contains(string(buf[:n]), `"udp"`) {
		t.Fatalf("unexpected welcome %q", buf[:n])
	}
	if srv.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", srv.Subscribers())
	}

	srv.Publish(feed.Event{Type: feed.TypeMovieAdded, MovieID: 3, Title: "Arrival"})
	n, err = client.Read(buf)
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev feed.Event
	if err := json.Unmarshal(buf[:n], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.MovieID != 3 || ev.Title != "Arrival" {
		t.Fatalf("unexpected event %+v", ev)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after close")
	}
}
