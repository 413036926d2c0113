package menuboard

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// InvalidDate is rendered for dates that cannot be parsed.
const InvalidDate = "Invalid Date"

const defaultLocale = "en-US"

// short numeric date layouts, matched against the configured locale;
// the first entry is the fallback
var localeLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.MustParse("en-CA"), "2006-01-02"},
	{language.MustParse("en-AU"), "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.French, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.Italian, "2/1/2006"},
	{language.Dutch, "2-1-2006"},
	{language.BrazilianPortuguese, "02/01/2006"},
	{language.Swedish, "2006-01-02"},
	{language.Japanese, "2006/1/2"},
	{language.Chinese, "2006/1/2"},
	{language.Korean, "2006. 1. 2."},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(localeLayouts))
	for i, l := range localeLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// date-only values are calendar dates and are never shifted between zones
const dateOnlyLayout = "2006-01-02"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC1123,
	time.RFC1123Z,
}

// DateFormatter renders date strings as a locale's short calendar date.
//
// It is immutable and safe for concurrent use.
type DateFormatter struct {
	locale   language.Tag
	layout   string
	location *time.Location
}

// NewDateFormatter returns a formatter for a BCP 47 locale such as "en-US"
// or "de". Unsupported locales fall back to the closest supported one, and
// to en-US when nothing is close. Timestamps with a zone are converted to
// loc before their date is taken; a nil loc means [time.Local].
func NewDateFormatter(locale string, loc *time.Location) (DateFormatter, error) {
	if locale == "" {
		locale = defaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DateFormatter{}, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	if loc == nil {
		loc = time.Local
	}

	_, idx, _ := localeMatcher.Match(tag)
	return DateFormatter{
		locale:   localeLayouts[idx].tag,
		layout:   localeLayouts[idx].layout,
		location: loc,
	}, nil
}

// Locale returns the supported locale the formatter matched.
func (f DateFormatter) Locale() string {
	return f.locale.String()
}

// Format renders s as a short date, or [InvalidDate] if s cannot be parsed.
func (f DateFormatter) Format(s string) string {
	t, ok := f.parse(strings.TrimSpace(s))
	if !ok {
		return InvalidDate
	}
	return t.Format(f.layout)
}

func (f DateFormatter) parse(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateOnlyLayout, s); err == nil {
		return t, true
	}

	loc := f.location
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}
