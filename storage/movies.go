package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	moviesTable    = "douban_movies"
	hotSearchTable = "baidu_hot_search"
)

const movieColumns = `rank_num, title, title_en, director, actors, year, country, genre,
	rating, rating_count, duration, poster_url, summary, douban_id, douban_url,
	crawl_time, created_time, updated_time`

// dayBounds returns [start of day, start of next day) in day's location, as UTC.
func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// replaceDay deletes every row of table created on day, then inserts rows one
// at a time. A failed insert is logged and skipped; a failed delete aborts.
func (s *Storage) replaceDay(ctx context.Context, table string, day time.Time, rows []map[string]any, label func(i int) string) (SaveResult, error) {
	result := SaveResult{Total: len(rows)}

	start, end := dayBounds(day)
	deleted, err := s.db.Delete(ctx, table, "created_time >= ? AND created_time < ?", start, end)
	if err != nil {
		return result, &PersistenceError{Table: table, Op: "delete", Err: err}
	}
	log.Printf("Cleared %d rows from %s for %s", deleted, table, day.Format("2006-01-02"))

	for i, fields := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.db.Insert(ctx, table, fields); err != nil {
			log.Printf("Error saving %s: %v", label(i), err)
			continue
		}
		result.Saved++
	}

	log.Printf("Saved %d/%d rows into %s", result.Saved, result.Total, table)
	return result, nil
}

// ReplaceMovies swaps the movies stored for day's calendar date with movies.
func (s *Storage) ReplaceMovies(ctx context.Context, day time.Time, movies []MovieRecord) (SaveResult, error) {
	rows := make([]map[string]any, len(movies))
	for i, m := range movies {
		rows[i] = m.Fields()
	}
	return s.replaceDay(ctx, moviesTable, day, rows, func(i int) string {
		return fmt.Sprintf("movie %q", movies[i].Title)
	})
}

// GetMoviesByDay returns the movies created on day's calendar date, by rank.
func (s *Storage) GetMoviesByDay(ctx context.Context, day time.Time) ([]MovieRecord, error) {
	start, end := dayBounds(day)
	query := `SELECT ` + movieColumns + ` FROM douban_movies
	WHERE created_time >= ? AND created_time < ?
	ORDER BY rank_num ASC, id ASC`
	return s.queryMovies(ctx, query, start, end)
}

// GetAllMovies returns every stored movie, newest first.
func (s *Storage) GetAllMovies(ctx context.Context) ([]MovieRecord, error) {
	query := `SELECT ` + movieColumns + ` FROM douban_movies ORDER BY created_time DESC, rank_num ASC`
	return s.queryMovies(ctx, query)
}

func (s *Storage) queryMovies(ctx context.Context, query string, args ...any) ([]MovieRecord, error) {
	rows, err := s.db.Conn().QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []MovieRecord
	for rows.Next() {
		var m MovieRecord
		err := rows.Scan(&m.Rank, &m.Title, &m.TitleEn, &m.Director, &m.Actors, &m.Year,
			&m.Country, &m.Genre, &m.Rating, &m.RatingCount, &m.Duration, &m.PosterURL,
			&m.Summary, &m.DoubanID, &m.DoubanURL, &m.CrawlTime, &m.CreatedTime, &m.UpdatedTime)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// ReplaceHotSearch swaps the hot-search entries stored for day's calendar date.
func (s *Storage) ReplaceHotSearch(ctx context.Context, day time.Time, items []HotSearchItem) (SaveResult, error) {
	rows := make([]map[string]any, len(items))
	for i, item := range items {
		rows[i] = item.Fields()
	}
	return s.replaceDay(ctx, hotSearchTable, day, rows, func(i int) string {
		return fmt.Sprintf("hot search %q", items[i].Title)
	})
}

// GetHotSearchByDay returns the hot-search entries created on day, by rank.
func (s *Storage) GetHotSearchByDay(ctx context.Context, day time.Time) ([]HotSearchItem, error) {
	start, end := dayBounds(day)
	query := `SELECT rank_num, title, url, hot_value, source, crawl_time, created_time
	FROM baidu_hot_search
	WHERE created_time >= ? AND created_time < ?
	ORDER BY rank_num ASC, id ASC`

	rows, err := s.db.Conn().QueryContext(ctx, s.db.Rebind(query), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query hot search: %w", err)
	}
	defer rows.Close()

	var items []HotSearchItem
	for rows.Next() {
		var h HotSearchItem
		if err := rows.Scan(&h.Rank, &h.Title, &h.URL, &h.HotValue, &h.Source, &h.CrawlTime, &h.CreatedTime); err != nil {
			return nil, fmt.Errorf("failed to scan hot search: %w", err)
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
