package storage

import (
	"context"
	"fmt"
)

const ratingDistributionQuery = `
SELECT
	CASE
		WHEN rating >= 9.0 THEN '9.0-10.0'
		WHEN rating >= 8.0 THEN '8.0-8.9'
		WHEN rating >= 7.0 THEN '7.0-7.9'
		WHEN rating >= 6.0 THEN '6.0-6.9'
		ELSE '6.0以下'
	END AS rating_range,
	COUNT(*) AS count
FROM douban_movies
WHERE rating IS NOT NULL
GROUP BY rating_range
ORDER BY rating_range DESC`

const yearDistributionQuery = `
SELECT
	CASE
		WHEN year >= '2020' THEN '2020年代'
		WHEN year >= '2010' THEN '2010年代'
		WHEN year >= '2000' THEN '2000年代'
		WHEN year >= '1990' THEN '1990年代'
		WHEN year >= '1980' THEN '1980年代'
		ELSE '1980年前'
	END AS decade,
	COUNT(*) AS count
FROM douban_movies
WHERE year IS NOT NULL AND year != ''
GROUP BY decade
ORDER BY decade DESC`

const countryDistributionQuery = `
SELECT
	CASE
		WHEN country LIKE '%美国%' THEN '美国'
		WHEN country LIKE '%中国%' OR country LIKE '%香港%' OR country LIKE '%台湾%' THEN '中国'
		WHEN country LIKE '%日本%' THEN '日本'
		WHEN country LIKE '%英国%' THEN '英国'
		WHEN country LIKE '%法国%' THEN '法国'
		WHEN country LIKE '%意大利%' THEN '意大利'
		WHEN country LIKE '%德国%' THEN '德国'
		ELSE '其他'
	END AS country_group,
	COUNT(*) AS count
FROM douban_movies
WHERE country IS NOT NULL AND country != ''
GROUP BY country_group
ORDER BY count DESC
LIMIT 8`

// RatingDistribution buckets stored movies by rating band.
func (s *Storage) RatingDistribution(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.FetchAll(ctx, ratingDistributionQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating distribution: %w", err)
	}
	return rows, nil
}

// YearDistribution buckets stored movies by release decade.
func (s *Storage) YearDistribution(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.FetchAll(ctx, yearDistributionQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query year distribution: %w", err)
	}
	return rows, nil
}

// CountryDistribution groups stored movies into the eight largest country groups.
func (s *Storage) CountryDistribution(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.FetchAll(ctx, countryDistributionQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query country distribution: %w", err)
	}
	return rows, nil
}
