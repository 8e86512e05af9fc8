package models

import (
	"encoding/json"
	"testing"
)

func TestAverageRating(t *testing.T) {
	cases := []struct {
		ratings []int
		want    float64
	}{
		{nil, 0},
		{[]int{5, 4}, 4.5},
		{[]int{5, 4, 4}, 4.3},
		{[]int{1, 2}, 1.5},
		{[]int{3}, 3},
		{[]int{2, 2, 2, 3}, 2.2},
		{[]int{1, 2, 3, 3}, 2.2},
		{[]int{3, 3, 3, 4}, 3.2},
		{[]int{4, 4, 4, 3}, 3.8},
	}
	for _, tc := range cases {
		m := Movie{}
		for _, r := range tc.ratings {
			m.Reviews = append(m.Reviews, Review{Rating: r})
		}
		if got := m.AverageRating(); got != tc.want {
			t.Fatalf("ratings %v: expected %v, got %v", tc.ratings, tc.want, got)
		}
	}
}

func TestPlaceholderPoster(t *testing.T) {
	got := PlaceholderPoster("The Dark Knight")
	want := "https://via.placeholder.com/300x450?text=The+Dark+Knight"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMovieJSONAlwaysCarriesDescription(t *testing.T) {
	b, err := json.Marshal(Movie{ID: 1, Title: "Oppenheimer"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"description", "poster_url", "reviews"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected %q in %s", key, b)
		}
	}
}
