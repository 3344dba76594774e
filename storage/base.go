package storage

import "time"

// MovieRecord is one entry of the Douban movie top list.
type MovieRecord struct {
	Rank        int       `json:"rank"`
	Title       string    `json:"title"`
	TitleEn     string    `json:"title_en"`
	Director    string    `json:"director"`
	Actors      string    `json:"actors"`
	Year        string    `json:"year"`
	Country     string    `json:"country"`
	Genre       string    `json:"genre"`
	Rating      float64   `json:"rating"`
	RatingCount int       `json:"rating_count"`
	Duration    string    `json:"duration"`
	PosterURL   string    `json:"poster_url"`
	Summary     string    `json:"summary"`
	DoubanURL   string    `json:"douban_url"`
	DoubanID    string    `json:"douban_id"`
	CrawlTime   time.Time `json:"crawl_time"`
	CreatedTime time.Time `json:"created_time"`
	UpdatedTime time.Time `json:"updated_time"`
}

// Fields returns the column map for the douban_movies table.
func (m MovieRecord) Fields() map[string]any {
	return map[string]any{
		"rank_num":     m.Rank,
		"title":        m.Title,
		"title_en":     m.TitleEn,
		"director":     m.Director,
		"actors":       m.Actors,
		"year":         m.Year,
		"country":      m.Country,
		"genre":        m.Genre,
		"rating":       m.Rating,
		"rating_count": m.RatingCount,
		"duration":     m.Duration,
		"poster_url":   m.PosterURL,
		"summary":      m.Summary,
		"douban_id":    m.DoubanID,
		"douban_url":   m.DoubanURL,
		"crawl_time":   m.CrawlTime.UTC(),
		"created_time": m.CreatedTime.UTC(),
		"updated_time": m.UpdatedTime.UTC(),
	}
}

// HotSearchItem is one entry of the Baidu realtime hot-search board.
type HotSearchItem struct {
	Rank        int       `json:"rank"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	HotValue    string    `json:"hot_value"`
	Source      string    `json:"source"`
	CrawlTime   time.Time `json:"crawl_time"`
	CreatedTime time.Time `json:"created_time"`
}

// Fields returns the column map for the baidu_hot_search table.
func (h HotSearchItem) Fields() map[string]any {
	source := h.Source
	if source == "" {
		source = "baidu"
	}
	return map[string]any{
		"rank_num":     h.Rank,
		"title":        h.Title,
		"url":          h.URL,
		"hot_value":    h.HotValue,
		"source":       source,
		"crawl_time":   h.CrawlTime.UTC(),
		"created_time": h.CreatedTime.UTC(),
	}
}

// SaveResult reports how many rows of a batch were stored.
type SaveResult struct {
	Saved int
	Total int
}
