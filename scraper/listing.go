package scraper

import (
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"douban-pulse/storage"
)

// ItemSelector matches one listing entry on the top list page.
const ItemSelector = ".item"

// ParseListing returns the listing entries of a page in document order.
// Empty text yields no items.
func ParseListing(html string) ([]*goquery.Selection, error) {
	blocks := make([]*goquery.Selection, 0)
	if strings.TrimSpace(html) == "" {
		return blocks, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &ParseError{Index: -1, Err: err}
	}

	doc.Find(ItemSelector).Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, s)
	})
	return blocks, nil
}

// ParseMovies parses a listing page and extracts every entry. An entry whose
// extraction panics is logged and skipped.
func ParseMovies(html string) ([]storage.MovieRecord, error) {
	blocks, err := ParseListing(html)
	if err != nil {
		return nil, err
	}

	movies := make([]storage.MovieRecord, 0, len(blocks))
	for i, block := range blocks {
		movie, err := safeExtract(i, block)
		if err != nil {
			log.Printf("Skipping movie: %v", err)
			continue
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

func safeExtract(i int, block *goquery.Selection) (movie storage.MovieRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseError{Index: i, Err: fmt.Errorf("%v", r)}
		}
	}()
	return ExtractMovie(block), nil
}
