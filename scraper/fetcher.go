package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly"
	"golang.org/x/net/html/charset"
)

const (
	DefaultBaseURL  = "https://movie.douban.com/top250"
	DefaultPageSize = 25
	DefaultTimeout  = 10 * time.Second

	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var browserHeaders = map[string]string{
	"User-Agent":                browserUserAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
	"Accept-Encoding":           "gzip, deflate",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// PageFetcher returns the decoded text of one listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (string, error)
}

type FetcherConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// Fetcher issues browser-like GET requests through a colly collector.
type Fetcher struct {
	cfg       FetcherConfig
	transport http.RoundTripper
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newTransport(),
	}
}

// PageURL returns the listing URL for a zero-based page index.
func (f *Fetcher) PageURL(page int) string {
	return fmt.Sprintf("%s?start=%d&filter=", f.cfg.BaseURL, page*f.cfg.PageSize)
}

func (f *Fetcher) FetchPage(ctx context.Context, page int) (string, error) {
	body, err := f.Get(ctx, f.PageURL(page))
	if err != nil {
		return "", err
	}
	return body, nil
}

// Get fetches rawURL and returns the body decoded to UTF-8. Every failure is
// reported as a *FetchError.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: rawURL, Err: err}
	}

	c := colly.NewCollector(
		colly.UserAgent(browserUserAgent),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(f.transport)
	c.SetRequestTimeout(f.cfg.Timeout)

	var (
		text   string
		status int
		got    bool
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
		log.Println("Visiting:", r.URL)
	})

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		text = decodeBody(r.Body)
		got = true
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(rawURL); err != nil {
		return "", &FetchError{URL: rawURL, StatusCode: status, Err: err}
	}
	if !got {
		return "", &FetchError{URL: rawURL, StatusCode: status, Err: errors.New("no response")}
	}

	log.Printf("Response received: %d (%d bytes)", status, len(text))
	return text, nil
}

// decodeBody returns body as UTF-8. colly has already converted bodies whose
// Content-Type names a charset, so anything still invalid is decoded using the
// charset the document itself declares.
func decodeBody(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}

	enc, _, _ := charset.DetermineEncoding(body, "text/html")
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
