package storage

import (
	"context"
	"testing"
)

func seedDistributionMovies(t *testing.T, s *Storage) {
	t.Helper()
	day := fixedDay()
	movies := []MovieRecord{
		{Rank: 1, Title: "a", Rating: 9.7, Year: "1994", Country: "美国", CreatedTime: day, CrawlTime: day, UpdatedTime: day},
		{Rank: 2, Title: "b", Rating: 9.6, Year: "1993", Country: "中国大陆/中国香港", CreatedTime: day, CrawlTime: day, UpdatedTime: day},
		{Rank: 3, Title: "c", Rating: 8.5, Year: "2001", Country: "日本", CreatedTime: day, CrawlTime: day, UpdatedTime: day},
		{Rank: 4, Title: "d", Rating: 5.0, Year: "", Country: "", CreatedTime: day, CrawlTime: day, UpdatedTime: day},
	}
	if _, err := s.ReplaceMovies(context.Background(), day, movies); err != nil {
		t.Fatalf("seed movies: %v", err)
	}
}

func countsBy(rows []map[string]any, key string) map[string]int64 {
	out := make(map[string]int64)
	for _, row := range rows {
		label, _ := row[key].(string)
		n, _ := row["count"].(int64)
		out[label] = n
	}
	return out
}

func TestRatingDistribution(t *testing.T) {
	s := newTestStorage(t)
	seedDistributionMovies(t, s)

	rows, err := s.RatingDistribution(context.Background())
	if err != nil {
		t.Fatalf("RatingDistribution: %v", err)
	}
	got := countsBy(rows, "rating_range")
	want := map[string]int64{"9.0-10.0": 2, "8.0-8.9": 1, "6.0以下": 1}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d (rows %v)", k, got[k], v, rows)
		}
	}
}

func TestYearDistribution(t *testing.T) {
	s := newTestStorage(t)
	seedDistributionMovies(t, s)

	rows, err := s.YearDistribution(context.Background())
	if err != nil {
		t.Fatalf("YearDistribution: %v", err)
	}
	got := countsBy(rows, "decade")
	if got["1990年代"] != 2 || got["2000年代"] != 1 {
		t.Errorf("unexpected decades %v", got)
	}
	if _, ok := got["1980年前"]; ok {
		t.Errorf("movies without a year should be excluded: %v", got)
	}
}

func TestCountryDistribution(t *testing.T) {
	s := newTestStorage(t)
	seedDistributionMovies(t, s)

	rows, err := s.CountryDistribution(context.Background())
	if err != nil {
		t.Fatalf("CountryDistribution: %v", err)
	}
	got := countsBy(rows, "country_group")
	want := map[string]int64{"美国": 1, "中国": 1, "日本": 1}
	if len(got) != len(want) {
		t.Fatalf("unexpected groups %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d", k, got[k], v)
		}
	}
}
