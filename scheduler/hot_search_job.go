package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"douban-pulse/storage"
)

// HotSearchSource is satisfied by *scraper.HotSearchScraper.
type HotSearchSource interface {
	Fetch(ctx context.Context) ([]storage.HotSearchItem, error)
}

type HotSearchStore interface {
	ReplaceHotSearch(ctx context.Context, day time.Time, items []storage.HotSearchItem) (storage.SaveResult, error)
}

// HotSearchJob snapshots the Baidu hot-search board into today's rows.
type HotSearchJob struct {
	source HotSearchSource
	store  HotSearchStore
	now    func() time.Time
}

func NewHotSearchJob(source HotSearchSource, store HotSearchStore) *HotSearchJob {
	return &HotSearchJob{source: source, store: store, now: time.Now}
}

func (j *HotSearchJob) Name() string {
	return "baidu_hot_search"
}

func (j *HotSearchJob) Run(ctx context.Context) error {
	log.Println("Starting Baidu hot search crawl")

	items, err := j.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch hot search: %w", err)
	}
	if len(items) == 0 {
		log.Println("No hot search entries fetched")
		return nil
	}

	result, err := j.store.ReplaceHotSearch(ctx, j.now(), items)
	if err != nil {
		return err
	}
	log.Printf("Hot search job complete: saved %d/%d", result.Saved, result.Total)
	return nil
}
