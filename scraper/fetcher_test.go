package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestPageURL(t *testing.T) {
	f := NewFetcher(FetcherConfig{})
	if got := f.PageURL(0); got != "https://movie.douban.com/top250?start=0&filter=" {
		t.Errorf("PageURL(0) = %q", got)
	}
	if got := f.PageURL(3); got != "https://movie.douban.com/top250?start=75&filter=" {
		t.Errorf("PageURL(3) = %q", got)
	}

	f = NewFetcher(FetcherConfig{BaseURL: "http://example.test/list", PageSize: 10})
	if got := f.PageURL(2); got != "http://example.test/list?start=20&filter=" {
		t.Errorf("PageURL(2) = %q", got)
	}
}

func TestFetchPageSendsBrowserHeadersAndDecodesGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(loadFixture(t)))
	gz.Close()

	var gotReq *http.Request
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL + "/top250", Timeout: 5 * time.Second})
	html, err := f.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	if !strings.Contains(html, "肖申克的救赎") {
		t.Errorf("body was not decoded, got %d bytes", len(html))
	}

	q := gotReq.URL.Query()
	if q.Get("start") != "50" {
		t.Errorf("start = %q, want 50", q.Get("start"))
	}
	if !q.Has("filter") || q.Get("filter") != "" {
		t.Errorf("filter param missing or non-empty: %q", gotReq.URL.RawQuery)
	}
	if got := gotReq.Header.Get("User-Agent"); got != browserUserAgent {
		t.Errorf("User-Agent = %q", got)
	}
	if got := gotReq.Header.Get("Accept-Language"); got != browserHeaders["Accept-Language"] {
		t.Errorf("Accept-Language = %q", got)
	}
	if got := gotReq.Header.Get("Accept-Encoding"); !strings.Contains(got, "gzip") {
		t.Errorf("Accept-Encoding = %q", got)
	}

	movies, err := ParseMovies(html)
	if err != nil {
		t.Fatalf("ParseMovies: %v", err)
	}
	if len(movies) != 2 {
		t.Errorf("got %d movies, want 2", len(movies))
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL})
	_, err := f.FetchPage(context.Background(), 0)
	if err == nil {
		t.Fatal("expected error for 403")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %T is not *FetchError", err)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode = %d, want 403", fe.StatusCode)
	}
	if !strings.HasPrefix(fe.URL, srv.URL) {
		t.Errorf("URL = %q", fe.URL)
	}
}

func TestFetchPageConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: url, Timeout: 2 * time.Second})
	_, err := f.FetchPage(context.Background(), 0)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", fe.StatusCode)
	}
}

func TestFetchPageTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("late"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	if _, err := f.FetchPage(context.Background(), 0); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetchPageCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(FetcherConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := f.FetchPage(ctx, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	page := `<html><head><meta charset="gbk"></head><body><span class="title">霸王别姬</span></body></html>`
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(page)
	if err != nil {
		t.Fatalf("encode gbk: %v", err)
	}

	tests := []struct {
		name        string
		contentType string
	}{
		{"meta only", "text/html"},
		{"header", "text/html; charset=gbk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(gbk))
			}))
			defer srv.Close()

			f := NewFetcher(FetcherConfig{BaseURL: srv.URL})
			html, err := f.Get(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !strings.Contains(html, "霸王别姬") {
				t.Errorf("body not decoded to UTF-8: %q", html)
			}
		})
	}
}

func TestDecodeBodyKeepsUTF8(t *testing.T) {
	in := "<p>肖申克的救赎</p>"
	if got := decodeBody([]byte(in)); got != in {
		t.Errorf("decodeBody = %q", got)
	}
}
