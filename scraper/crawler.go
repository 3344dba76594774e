package scraper

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"douban-pulse/storage"
)

const (
	DefaultPages = 4
	DefaultDelay = 2 * time.Second
)

type CrawlerConfig struct {
	Pages int
	// Delay is the minimum spacing between two page requests.
	Delay time.Duration
}

// Crawler walks the listing pages one at a time and accumulates movies.
type Crawler struct {
	fetcher PageFetcher
	pages   int
	limiter *rate.Limiter
}

func NewCrawler(fetcher PageFetcher, cfg CrawlerConfig) *Crawler {
	if cfg.Pages <= 0 {
		cfg.Pages = DefaultPages
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	return &Crawler{
		fetcher: fetcher,
		pages:   cfg.Pages,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Run fetches every page and returns the movies in page order. Pages that
// fail to fetch or parse are skipped. If ctx is cancelled the partial batch
// is discarded and ctx's error is returned.
func (c *Crawler) Run(ctx context.Context) ([]storage.MovieRecord, error) {
	log.Printf("Crawling %d pages", c.pages)

	var all []storage.MovieRecord
	for page := 0; page < c.pages; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		log.Printf("Crawling page %d/%d", page+1, c.pages)

		html, err := c.fetcher.FetchPage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Page %d fetch failed, skipping: %v", page+1, err)
			continue
		}

		movies, err := ParseMovies(html)
		if err != nil {
			log.Printf("Page %d parse failed, skipping: %v", page+1, err)
			continue
		}
		if len(movies) == 0 {
			log.Printf("Page %d had no movies", page+1)
			continue
		}

		log.Printf("Page %d: parsed %d movies", page+1, len(movies))
		if page == 0 {
			for i, m := range movies[:min(3, len(movies))] {
				log.Printf("Movie %d: %s - director: %s - actors: %s - rating: %.1f", i+1, m.Title, m.Director, m.Actors, m.Rating)
			}
		}
		all = append(all, movies...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Printf("Crawled %d movies in total", len(all))
	return all, nil
}
