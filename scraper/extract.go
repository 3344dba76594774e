package scraper

import (
	"log"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"douban-pulse/storage"
)

const subjectSegment = "/subject/"

type fieldRule struct {
	name  string
	apply func(item *goquery.Selection, m *storage.MovieRecord)
}

// movieRules run in order against every item. Each one only touches its own
// fields and leaves them at their zero value when the markup is missing.
var movieRules = []fieldRule{
	{"rank", extractRank},
	{"link", extractLink},
	{"poster", extractPoster},
	{"titles", extractTitles},
	{"details", extractDetails},
	{"rating", extractRating},
	{"rating_count", extractRatingCount},
	{"summary", extractSummary},
}

// ExtractMovie builds a MovieRecord from one listing item. It never fails.
func ExtractMovie(item *goquery.Selection) storage.MovieRecord {
	return extractMovieAt(item, time.Now())
}

func extractMovieAt(item *goquery.Selection, now time.Time) storage.MovieRecord {
	var m storage.MovieRecord
	for _, rule := range movieRules {
		applyRule(rule, item, &m)
	}
	m.CrawlTime = now
	m.CreatedTime = now
	m.UpdatedTime = now
	return m
}

func applyRule(rule fieldRule, item *goquery.Selection, m *storage.MovieRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Field %s skipped: %v", rule.name, r)
		}
	}()
	rule.apply(item, m)
}

func extractRank(item *goquery.Selection, m *storage.MovieRecord) {
	em := item.Find("em").First()
	if em.Length() == 0 {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(em.Text())); err == nil {
		m.Rank = n
	}
}

func extractLink(item *goquery.Selection, m *storage.MovieRecord) {
	href, ok := item.Find("a").First().Attr("href")
	if !ok || href == "" {
		return
	}
	m.DoubanURL = href
	m.DoubanID = doubanIDFromURL(href)
}

// doubanIDFromURL returns what follows /subject/ with trailing slashes removed.
func doubanIDFromURL(href string) string {
	_, after, found := strings.Cut(href, subjectSegment)
	if !found {
		return ""
	}
	if i := strings.Index(after, subjectSegment); i >= 0 {
		after = after[:i]
	}
	return strings.TrimRight(after, "/")
}

func extractPoster(item *goquery.Selection, m *storage.MovieRecord) {
	m.PosterURL = item.Find("img").First().AttrOr("src", "")
}

func extractTitles(item *goquery.Selection, m *storage.MovieRecord) {
	titles := item.Find("span.title")
	if titles.Length() == 0 {
		return
	}
	m.Title = strings.TrimSpace(titles.Eq(0).Text())
	if titles.Length() > 1 {
		m.TitleEn = cleanAltTitle(titles.Eq(1).Text())
	}
}

// cleanAltTitle drops the leading "/" separator Douban puts before alternate titles.
func cleanAltTitle(s string) string {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(s)
}

func extractDetails(item *goquery.Selection, m *storage.MovieRecord) {
	bd := item.Find("div.bd").First()
	if bd.Length() == 0 {
		return
	}
	p := bd.Find("p").First()
	if p.Length() == 0 {
		return
	}

	lines := detailLines(strings.TrimSpace(p.Text()))
	combined := strings.Join(lines, " ")

	m.Director = parseDirector(combined)
	m.Actors = parseActors(combined)

	d := classifyLines(lines)
	m.Year = d.Year
	m.Duration = d.Duration
	m.Country = d.Country
	m.Genre = d.Genre
}

func extractRating(item *goquery.Selection, m *storage.MovieRecord) {
	el := item.Find("span.rating_num").First()
	if el.Length() == 0 {
		return
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(el.Text()), 64); err == nil {
		m.Rating = v
	}
}

func extractRatingCount(item *goquery.Selection, m *storage.MovieRecord) {
	item.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, ratingCountMarker) {
			return true
		}
		digits := strings.TrimSpace(strings.ReplaceAll(text, ratingCountMarker, ""))
		if n, err := strconv.Atoi(digits); err == nil {
			m.RatingCount = n
		}
		return false
	})
}

func extractSummary(item *goquery.Selection, m *storage.MovieRecord) {
	m.Summary = strings.TrimSpace(item.Find("span.inq").First().Text())
}
