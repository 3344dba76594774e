package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"douban-pulse/storage"
)

// MovieCrawler is satisfied by *scraper.Crawler.
type MovieCrawler interface {
	Run(ctx context.Context) ([]storage.MovieRecord, error)
}

type MovieStore interface {
	ReplaceMovies(ctx context.Context, day time.Time, movies []storage.MovieRecord) (storage.SaveResult, error)
}

type TopListNotifier interface {
	NotifyTopList(movies []storage.MovieRecord, result storage.SaveResult) error
}

// MovieTopJob crawls the Douban Top list and replaces today's rows with it.
type MovieTopJob struct {
	crawler  MovieCrawler
	store    MovieStore
	notifier TopListNotifier
	now      func() time.Time
}

// NewMovieTopJob creates the job. notifier may be nil to disable email.
func NewMovieTopJob(crawler MovieCrawler, store MovieStore, notifier TopListNotifier) *MovieTopJob {
	if notifier == nil {
		log.Println("Email notifications disabled: missing configuration")
	}
	return &MovieTopJob{
		crawler:  crawler,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

func (j *MovieTopJob) Name() string {
	return "douban_movie_top"
}

// Run crawls every page and persists the batch. A cancelled crawl saves
// nothing; an empty crawl leaves stored data untouched.
func (j *MovieTopJob) Run(ctx context.Context) error {
	log.Println("Starting Douban Top list crawl")

	movies, err := j.crawler.Run(ctx)
	if err != nil {
		return fmt.Errorf("crawl top list: %w", err)
	}
	if len(movies) == 0 {
		log.Println("No movies crawled, nothing to save")
		return nil
	}

	log.Printf("Crawled %d movies, saving to database", len(movies))
	result, err := j.store.ReplaceMovies(ctx, j.now(), movies)
	if err != nil {
		return err
	}

	if j.notifier != nil && result.Saved > 0 {
		log.Printf("Sending email notification with %d movies", len(movies))
		if err := j.notifier.NotifyTopList(movies, result); err != nil {
			log.Printf("Failed to send email notification: %v", err)
		}
	}

	log.Printf("Douban Top list job complete: saved %d/%d", result.Saved, result.Total)
	return nil
}
