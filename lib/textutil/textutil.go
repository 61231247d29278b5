package textutil

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var tagRegex = regexp.MustCompile(`<[^>]*>`)
var yearRegex = regexp.MustCompile(`\d{4}`)

var turkishLower = cases.Lower(language.Turkish)

// CollapseSpace trims the string and folds runs of whitespace (including
// newlines and tabs from pretty-printed markup) into single spaces.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// LowerTurkish lowercases with Turkish casing rules, so dotted and dotless
// i map correctly ("İZİN" comes out "izin", not "i̇zi̇n").
func LowerTurkish(s string) string {
	return turkishLower.String(s)
}

// NormalizeName produces a comparison key for fuzzy matching institution
// and person names: Turkish-lowercased with all whitespace removed.
func NormalizeName(name string) string {
	name = LowerTurkish(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// StripTags removes markup tags from scraped fragment strings. Values pulled
// out of inline scripts still carry <span> and <br> wrappers.
func StripTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}

const (
	minPlausibleYear = 1980
	maxPlausibleYear = 2030
)

// ParseYear extracts the first 4-digit run and accepts it only within the
// registry's plausible range. "2019-2020" parses as 2019; "1950" and
// non-numeric strings do not parse at all.
func ParseYear(s string) (int, bool) {
	match := yearRegex.FindString(s)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	if year < minPlausibleYear || year > maxPlausibleYear {
		return 0, false
	}
	return year, true
}
