package attendance

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

type localeLayout struct {
	tag    language.Tag
	layout string
}

// Layouts follow the usual date/time order of each locale. No layout contains
// a comma, so readable timestamps stay a single CSV field. The first entry is
// the fallback.
var localeLayouts = []localeLayout{
	{language.AmericanEnglish, "1/2/2006 3:04:05 PM"},
	{language.BritishEnglish, "02/01/2006 15:04:05"},
	{language.MustParse("en-IN"), "2/1/2006 3:04:05 pm"},
	{language.German, "2.1.2006 15:04:05"},
	{language.French, "02/01/2006 15:04:05"},
	{language.Japanese, "2006/1/2 15:04:05"},
}

var localeMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(localeLayouts))
	for i, l := range localeLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// Locale renders dates and readable timestamps for one language and time zone.
type Locale struct {
	tag    language.Tag
	layout string
	loc    *time.Location
}

// NewLocale matches name (a BCP 47 tag such as "en-IN") against the supported
// layouts. Unsupported languages fall back to en-US formatting. A nil loc
// means UTC.
func NewLocale(name string, loc *time.Location) (Locale, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return Locale{}, fmt.Errorf("attendance: locale %q: %w", name, err)
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		idx = 0
	}
	if loc == nil {
		loc = time.UTC
	}
	return Locale{tag: localeLayouts[idx].tag, layout: localeLayouts[idx].layout, loc: loc}, nil
}

// DefaultLocale is en-US in UTC.
func DefaultLocale() Locale {
	return Locale{tag: localeLayouts[0].tag, layout: localeLayouts[0].layout, loc: time.UTC}
}

// Tag is the matched language.
func (l Locale) Tag() language.Tag { return l.tag }

func (l Locale) location() *time.Location {
	if l.loc == nil {
		return time.UTC
	}
	return l.loc
}

// FormatTimestamp renders t for display.
func (l Locale) FormatTimestamp(t time.Time) string {
	layout := l.layout
	if layout == "" {
		layout = localeLayouts[0].layout
	}
	return t.In(l.location()).Format(layout)
}

// Date is the calendar date of t in the locale's time zone.
func (l Locale) Date(t time.Time) string {
	return t.In(l.location()).Format(DateLayout)
}
