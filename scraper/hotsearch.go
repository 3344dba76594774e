package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"douban-pulse/storage"
)

const (
	DefaultHotSearchURL   = "https://top.baidu.com/api/board?platform=wise&tab=realtime"
	DefaultHotSearchLimit = 10
)

type hotBoardResponse struct {
	Data struct {
		Cards []struct {
			Content []hotBoardEntry `json:"content"`
		} `json:"cards"`
	} `json:"data"`
}

type hotBoardEntry struct {
	Word     string          `json:"word"`
	URL      string          `json:"url"`
	HotScore json.RawMessage `json:"hotScore"`
}

// HotSearchScraper reads the Baidu realtime hot-search board.
type HotSearchScraper struct {
	fetcher *Fetcher
	url     string
	limit   int
}

func NewHotSearchScraper(fetcher *Fetcher, url string, limit int) *HotSearchScraper {
	if url == "" {
		url = DefaultHotSearchURL
	}
	if limit <= 0 {
		limit = DefaultHotSearchLimit
	}
	return &HotSearchScraper{fetcher: fetcher, url: url, limit: limit}
}

// Fetch downloads the board and returns its entries ranked from 1.
func (h *HotSearchScraper) Fetch(ctx context.Context) ([]storage.HotSearchItem, error) {
	body, err := h.fetcher.Get(ctx, h.url)
	if err != nil {
		return nil, err
	}
	return ParseHotSearch([]byte(body), h.limit, time.Now())
}

// ParseHotSearch decodes a board payload, keeping at most limit entries from
// each card.
func ParseHotSearch(body []byte, limit int, now time.Time) ([]storage.HotSearchItem, error) {
	var resp hotBoardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Index: -1, Err: fmt.Errorf("decode hot search board: %w", err)}
	}

	items := make([]storage.HotSearchItem, 0)
	for _, card := range resp.Data.Cards {
		entries := card.Content
		if len(entries) > limit {
			entries = entries[:limit]
		}
		for _, e := range entries {
			items = append(items, storage.HotSearchItem{
				Rank:        len(items) + 1,
				Title:       e.Word,
				URL:         e.URL,
				HotValue:    hotScoreString(e.HotScore),
				Source:      "baidu",
				CrawlTime:   now,
				CreatedTime: now,
			})
		}
	}
	return items, nil
}

// hotScoreString renders hotScore whether the API sent a number or a string.
func hotScoreString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "0"
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}
