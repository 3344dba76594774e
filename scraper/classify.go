package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const (
	directorMarker    = "导演:"
	actorMarker       = "主演:"
	durationMarker    = "分钟"
	ratingCountMarker = "人评价"

	minYear = 1900
	maxYear = 2030
)

var countryVocabulary = []string{
	"中国大陆", "美国", "英国", "法国", "德国", "日本", "韩国",
	"意大利", "西班牙", "加拿大", "澳大利亚", "中国香港", "中国台湾",
	"俄罗斯", "印度", "瑞典", "丹麦", "挪威", "芬兰", "荷兰", "比利时",
}

var genreVocabulary = []string{
	"剧情", "喜剧", "动作", "爱情", "科幻", "悬疑", "惊悚", "恐怖",
	"犯罪", "战争", "动画", "纪录片", "传记", "历史", "音乐", "家庭",
	"冒险", "奇幻", "西部", "运动", "短片",
}

// Tried in order when the director span has no actor marker after it.
// The first delimiter present wins, not the earliest one.
var directorDelimiters = []string{"年", durationMarker, "类型"}

// The actor span ends at the earliest of these.
var actorDelimiters = []string{"年", durationMarker, "类型", "剧情", "喜剧", "动作"}

// actorYearDigits is bounded by isWordBoundary rather than \b, which only
// knows ASCII word characters.
var actorYearDigits = regexp.MustCompile(`(?:19|20)\p{Nd}{2}`)

type partKind int

const (
	partNone partKind = iota
	partYear
	partDuration
	partCountry
	partGenre
)

func (k partKind) String() string {
	switch k {
	case partYear:
		return "year"
	case partDuration:
		return "duration"
	case partCountry:
		return "country"
	case partGenre:
		return "genre"
	}
	return "none"
}

// partRules is checked top to bottom; the first match claims the part.
var partRules = []struct {
	kind  partKind
	match func(string) bool
}{
	{partYear, isFourDigits},
	{partDuration, func(s string) bool { return strings.Contains(s, durationMarker) }},
	{partCountry, containsAny(countryVocabulary)},
	{partGenre, containsAny(genreVocabulary)},
}

// classifyPart labels one slash-separated part of a detail line. A four-digit
// part outside [minYear, maxYear] is claimed by the year rule and dropped.
func classifyPart(part string) partKind {
	for _, rule := range partRules {
		if !rule.match(part) {
			continue
		}
		if rule.kind == partYear && !yearInRange(part) {
			return partNone
		}
		return rule.kind
	}
	return partNone
}

func isFourDigits(s string) bool {
	if utf8.RuneCountInString(s) != 4 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func yearInRange(s string) bool {
	n, err := strconv.Atoi(width.Narrow.String(s))
	if err != nil {
		return false
	}
	return n >= minYear && n <= maxYear
}

func containsAny(words []string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// detailLines splits the detail text into trimmed, non-blank lines.
func detailLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinNames trims every slash-separated name, drops blanks and rejoins with "/".
func joinNames(s string) string {
	var names []string
	for _, name := range strings.Split(s, "/") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "/")
}

// parseDirector extracts the director list from the combined detail text.
func parseDirector(combined string) string {
	idx := strings.Index(combined, directorMarker)
	if idx < 0 {
		return ""
	}
	start := idx + len(directorMarker)
	rest := combined[start:]

	end := strings.Index(rest, actorMarker)
	if end < 0 {
		end = len(rest)
		for _, d := range directorDelimiters {
			if i := strings.Index(rest, d); i >= 0 {
				end = i
				break
			}
		}
	}

	return joinNames(strings.TrimSpace(rest[:end]))
}

// parseActors extracts the actor list from the combined detail text.
func parseActors(combined string) string {
	idx := strings.Index(combined, actorMarker)
	if idx < 0 {
		return ""
	}
	rest := combined[idx+len(actorMarker):]

	end := len(rest)
	for _, d := range actorDelimiters {
		if i := strings.Index(rest, d); i >= 0 && i < end {
			end = i
		}
	}
	if i := indexActorYear(rest); i >= 0 && i < end {
		end = i
	}

	text := strings.TrimSpace(rest[:end])
	text = strings.TrimRight(text, ".…")
	return joinNames(text)
}

// indexActorYear returns the byte offset of the first standalone 19xx or 20xx
// in s, or -1. Digits glued to letters of any script do not count.
func indexActorYear(s string) int {
	for off := 0; off < len(s); {
		loc := actorYearDigits.FindStringIndex(s[off:])
		if loc == nil {
			return -1
		}
		start, end := off+loc[0], off+loc[1]
		if isWordBoundary(s, start) && isWordBoundary(s, end) {
			return start
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		off = start + size
	}
	return -1
}

func isWordBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// lineDetails holds what the per-line scan found.
type lineDetails struct {
	Year     string
	Duration string
	Country  string
	Genre    string
}

// classifyLines scans detail lines for year, duration, country and genre.
// Year and duration are overwritten by every later match; country and genre
// accumulate.
func classifyLines(lines []string) lineDetails {
	var d lineDetails
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, directorMarker) || strings.Contains(line, actorMarker) {
			continue
		}
		if !hasDigit(line) {
			continue
		}

		for _, part := range strings.Split(line, "/") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			switch classifyPart(part) {
			case partYear:
				d.Year = part
			case partDuration:
				d.Duration = part
			case partCountry:
				d.Country = appendJoined(d.Country, part, "/")
			case partGenre:
				d.Genre = appendJoined(d.Genre, part, " ")
			}
		}
	}
	return d
}

func appendJoined(acc, part, sep string) string {
	if acc == "" {
		return part
	}
	return acc + sep + part
}
