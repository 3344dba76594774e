package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"douban-pulse/config"
	"douban-pulse/notifier"
	"douban-pulse/scheduler"
	"douban-pulse/scraper"
	"douban-pulse/storage"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Douban Pulse application...")

	if err := run(); err != nil {
		log.Printf("Application exiting with error: %v", err)
		os.Exit(1)
	}
	log.Println("Application exiting")
}

// run returns only after its deferred cleanup has closed storage.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.LogSummary()

	if cfg.RunMode == config.RunModeEmailTest {
		return runEmailTest(cfg)
	}

	store := storage.NewStorage(cfg.Storage)
	if err := store.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	fetcher := scraper.NewFetcher(cfg.Fetcher)
	movieJob := scheduler.NewMovieTopJob(scraper.NewCrawler(fetcher, cfg.Crawler), store, newNotifier(cfg))
	hotJob := scheduler.NewHotSearchJob(scraper.NewHotSearchScraper(fetcher, cfg.HotSearchURL, cfg.HotSearchLimit), store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.RunMode {
	case config.RunModeScheduler:
		log.Println("Starting in scheduler mode")

		sched := scheduler.NewScheduler()
		if err := sched.AddJob(movieJob, cfg.ScheduleSpecs...); err != nil {
			return fmt.Errorf("failed to schedule top list job: %w", err)
		}
		if err := sched.AddJob(hotJob, cfg.HotSearchSpecs...); err != nil {
			return fmt.Errorf("failed to schedule hot search job: %w", err)
		}

		sched.Start()
		for _, name := range sched.Jobs() {
			log.Printf("Next run of %s: %s", name, sched.NextRun(name).Format(time.RFC3339))
		}

		if cfg.RunAtStartup {
			log.Println("Running initial crawl at startup")
			for _, name := range sched.Jobs() {
				if ctx.Err() != nil {
					break
				}
				if err := sched.RunJobNow(ctx, name); err != nil {
					log.Printf("Error running initial job %s: %v", name, err)
				}
			}
		}

		displayDatabaseStats(ctx, store)

		log.Println("Application running. Press Ctrl+C to exit")
		<-ctx.Done()
		log.Println("Received shutdown signal, shutting down...")

		sched.Stop()

	case config.RunModeOnce:
		log.Println("Running in single execution mode")

		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()

		err := runOnce(runCtx, movieJob, hotJob)
		if ctx.Err() == nil {
			displayDatabaseStats(ctx, store)
		}
		return err
	}

	return nil
}

// runOnce runs the top list job and then the hot search job. A top list
// failure is returned; a hot search failure is only logged. Once ctx is done
// the remaining job is skipped.
func runOnce(ctx context.Context, movieJob, hotJob scheduler.Job) error {
	if err := movieJob.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("Job %s interrupted: %v", movieJob.Name(), err)
		} else {
			log.Printf("Error running job %s: %v", movieJob.Name(), err)
		}
		return err
	}

	if ctx.Err() != nil {
		log.Printf("Skipping job %s: %v", hotJob.Name(), ctx.Err())
		return ctx.Err()
	}
	if err := hotJob.Run(ctx); err != nil {
		log.Printf("Error running hot search job: %v", err)
	}
	return nil
}

// newNotifier returns nil when email is not configured.
func newNotifier(cfg *config.Config) scheduler.TopListNotifier {
	if !cfg.EmailEnabled() {
		return nil
	}
	n, err := notifier.NewEmailNotifier(cfg.Email)
	if err != nil {
		log.Printf("Failed to create email notifier: %v", err)
		return nil
	}
	log.Printf("Email notifications will be sent to: %s", cfg.Email.RecipientEmail)
	return n
}

func runEmailTest(cfg *config.Config) error {
	n, err := notifier.NewEmailNotifier(cfg.Email)
	if err != nil {
		return fmt.Errorf("email is not configured: %w", err)
	}
	if err := n.SendTest(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// displayDatabaseStats shows database statistics
func displayDatabaseStats(ctx context.Context, store *storage.Storage) {
	log.Println("Database Statistics")

	stats, err := store.GetStats(ctx)
	if err != nil {
		log.Printf("Error getting database stats: %v", err)
		return
	}
	log.Printf("Movies: %d", stats["movies"])
	log.Printf("Hot search entries: %d", stats["hot_search"])

	movies, err := store.GetMoviesByDay(ctx, time.Now())
	if err != nil {
		log.Printf("Error getting movies: %v", err)
		return
	}

	limit := min(5, len(movies))
	log.Printf("Today's top %d:", limit)
	for _, m := range movies[:limit] {
		log.Printf("- #%d %s (%s) %.1f [%s]", m.Rank, m.Title, m.Year, m.Rating, m.Genre)
	}
}
