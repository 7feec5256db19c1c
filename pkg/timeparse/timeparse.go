// Package timeparse extracts an event start time from free-form text.
//
// Relative durations ("in 2 days", "30m", "1h 15min") take precedence. When
// none are present the whole text goes through a fuzzy natural-language
// parser, with timezone abbreviations resolved through pkg/tz.
package timeparse

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"eventposter/pkg/tz"
)

var durationRe = regexp.MustCompile(`(?i)(\d+?)\s?(weeks?|w|days?|d|hours?|hrs|hr?|minutes?|mins?|m|seconds?|secs?|s)`)

var tomorrowRe = regexp.MustCompile(`(?i)tomorrow`)

// Numeric dates are matched before the fuzzy parser, which reads the
// "10-25" of "2026-10-25" as a clock time.
var (
	isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2})(?:[ T](\d{1,2}:\d{2}))?\b`)
	dmyDateRe = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](\d{4})\b`)
)

// Default parses against the process-wide timezone cache.
var Default = New(tz.Default, slog.Default())

// ZoneResolver resolves timezone abbreviations such as "EST".
type ZoneResolver interface {
	Lookup(abbr string) (*time.Location, bool)
}

type Parser struct {
	zones  ZoneResolver
	fuzzy  *when.Parser
	logger *slog.Logger
}

func New(zones ZoneResolver, logger *slog.Logger) *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{zones: zones, fuzzy: w, logger: logger}
}

// Parse returns the UTC instant described by text, relative to now.
// ok is false when nothing in the text looks like a time.
func (p *Parser) Parse(text string, now time.Time) (t time.Time, ok bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	if d, found := Duration(text); found {
		return now.UTC().Add(d), true
	}
	return p.parseFuzzy(text, now)
}

// Duration sums every relative-duration token in text.
func Duration(text string) (time.Duration, bool) {
	var total time.Duration
	found := false
	for _, m := range durationRe.FindAllStringSubmatchIndex(text, -1) {
		unit := strings.ToLower(text[m[4]:m[5]])
		// bare "m" followed by "o" is the start of "months"
		if unit == "m" && m[1] < len(text) && (text[m[1]] == 'o' || text[m[1]] == 'O') {
			continue
		}
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		total += time.Duration(n) * unitOf(unit)
		found = true
	}
	return total, found
}

func unitOf(unit string) time.Duration {
	switch unit {
	case "week", "weeks", "w":
		return 7 * 24 * time.Hour
	case "day", "days", "d":
		return 24 * time.Hour
	case "hour", "hours", "hrs", "hr", "h":
		return time.Hour
	case "minute", "minutes", "min", "mins", "m":
		return time.Minute
	default:
		return time.Second
	}
}

func (p *Parser) parseFuzzy(text string, now time.Time) (time.Time, bool) {
	loc := time.UTC
	if zone, found := p.zoneIn(text); found {
		loc = zone
	}
	// "tomorrow" is applied by hand below, so the fuzzy parser never sees it.
	tomorrow := tomorrowRe.MatchString(text)
	cleaned := tomorrowRe.ReplaceAllString(text, " ")

	var t time.Time
	date, rest, clock, found, err := numericDate(cleaned, loc)
	switch {
	case err != nil:
		p.logger.Debug("invalid date", "text", text, "error", err)
		return time.Time{}, false
	case found && clock:
		t = date
	case found:
		t = date
		if res, err := p.fuzzy.Parse(rest, date); err == nil && res != nil {
			// only the time of day is taken, the date stays the one written out
			h, m, sec := res.Time.Clock()
			t = time.Date(date.Year(), date.Month(), date.Day(), h, m, sec, 0, loc)
		}
	default:
		res, err := p.fuzzy.Parse(cleaned, now.In(loc))
		if err != nil {
			p.logger.Debug("error parsing datetime", "text", text, "error", err)
			return time.Time{}, false
		}
		if res == nil {
			p.logger.Debug("no datetime found", "text", text)
			return time.Time{}, false
		}
		t = res.Time
	}
	if tomorrow {
		t = t.AddDate(0, 0, 1)
	}
	return t.UTC(), true
}

// numericDate finds a YYYY-MM-DD, DD.MM.YYYY or DD/MM/YYYY date in text and
// returns it at midnight in loc, with the match removed from rest. clock
// reports whether an ISO date carried its own HH:MM.
func numericDate(text string, loc *time.Location) (date time.Time, rest string, clock, found bool, err error) {
	if m := isoDateRe.FindStringSubmatchIndex(text); m != nil {
		value, layout := text[m[2]:m[3]], "2006-1-2"
		if m[4] >= 0 {
			value += " " + text[m[4]:m[5]]
			layout += " 15:04"
			clock = true
		}
		date, err = time.ParseInLocation(layout, value, loc)
		return date, text[:m[0]] + " " + text[m[1]:], clock, true, err
	}
	if m := dmyDateRe.FindStringSubmatchIndex(text); m != nil {
		value := text[m[2]:m[3]] + "." + text[m[4]:m[5]] + "." + text[m[6]:m[7]]
		date, err = time.ParseInLocation("2.1.2006", value, loc)
		return date, text[:m[0]] + " " + text[m[1]:], false, true, err
	}
	return time.Time{}, text, false, false, nil
}

// zoneIn looks for an upper-case timezone abbreviation token in text.
// Lower-case words are ignored so "eat" or "cat" never select a zone.
func (p *Parser) zoneIn(text string) (*time.Location, bool) {
	if p.zones == nil {
		return nil, false
	}
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r < 'A' || (r > 'Z' && r < 'a') || r > 'z'
	})
	for _, f := range fields {
		if len(f) < 2 || strings.ToUpper(f) != f {
			continue
		}
		if loc, ok := p.zones.Lookup(f); ok {
			return loc, true
		}
	}
	return nil, false
}
