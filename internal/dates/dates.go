// Package dates normalizes the heterogeneous date literals found in the
// catalogue graph and parses them for comparison.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Precision is how much of a date value was actually stated
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionYear
	PrecisionMonth
	PrecisionDay
	PrecisionTime
)

// Layout is the normalized point format
const Layout = "2006-01-02T15:04:05"

// Value is a parsed date. Ranges carry End; points leave it zero.
type Value struct {
	Start     time.Time
	End       time.Time
	Precision Precision
	Range     bool
	// Zoned is set when the literal carried an explicit offset.
	Zoned bool
}

var (
	yearRe          = regexp.MustCompile(`^(\d{4})$`)
	yearMonthRe     = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	dayRe           = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearRangeRe     = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	normalizedRange = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})/(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})$`)
	fragmentRe      = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}_\d{2}:\d{2})`)
	firstYearRe     = regexp.MustCompile(`(\d{4})`)
	circaRe         = regexp.MustCompile(`(?i)\b(circa|c\.|ca\.)`)
)

var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02_15:04",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

var textLayouts = []struct {
	layout    string
	precision Precision
}{
	{"January 2, 2006", PrecisionDay},
	{"January 2 2006", PrecisionDay},
	{"2 January 2006", PrecisionDay},
	{"Jan 2, 2006", PrecisionDay},
	{"2 Jan 2006", PrecisionDay},
	{"2006/01/02", PrecisionDay},
	{"January 2006", PrecisionMonth},
	{"Jan 2006", PrecisionMonth},
}

// Parse reads a date literal. It accepts everything Normalize accepts
// plus catalogue URI fragments of the form "...#YYYY-MM-DD_HH:MM...".
func Parse(raw string) (Value, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndex(s, "#"); i >= 0 {
		frag := s[i+1:]
		if m := fragmentRe.FindStringSubmatch(frag); m != nil {
			if t, err := time.Parse("2006-01-02_15:04", m[1]); err == nil {
				return Value{Start: t, Precision: PrecisionTime}, true
			}
		}
		return Value{}, false
	}
	return parse(s)
}

// Normalize converts a literal to its canonical string form: a point as
// YYYY-MM-DDTHH:MM:SS (missing parts default to January 1st, midnight) or a
// range as begin/end. It reports false for anything it cannot read, and
// returns normalized input unchanged.
func Normalize(raw string) (string, bool) {
	v, ok := parse(strings.TrimSpace(raw))
	if !ok {
		return "", false
	}
	return v.String(), true
}

// IsNormalized reports whether s is already in canonical form
func IsNormalized(s string) bool {
	n, ok := Normalize(s)
	return ok && n == s
}

// String formats the value in canonical form
func (v Value) String() string {
	if v.Range {
		return v.Start.Format(Layout) + "/" + v.End.Format(Layout)
	}
	if v.Zoned {
		return v.Start.Format(time.RFC3339)
	}
	return v.Start.Format(Layout)
}

func parse(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}

	if m := normalizedRange.FindStringSubmatch(s); m != nil {
		start, err1 := time.Parse(Layout, m[1])
		end, err2 := time.Parse(Layout, m[2])
		if err1 == nil && err2 == nil {
			return Value{Start: start, End: end, Precision: PrecisionYear, Range: true}, true
		}
		return Value{}, false
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Value{Start: t, Precision: PrecisionTime, Zoned: true}, true
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Value{Start: t, Precision: PrecisionTime}, true
		}
	}

	if dayRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return Value{Start: t, Precision: PrecisionDay}, true
		}
		return Value{}, false
	}
	if m := yearMonthRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("2006-01", s); err == nil {
			return Value{Start: t, Precision: PrecisionMonth}, true
		}
		return Value{}, false
	}
	if m := yearRe.FindStringSubmatch(s); m != nil {
		return yearValue(m[1])
	}
	if m := yearRangeRe.FindStringSubmatch(s); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if to < from {
			return Value{}, false
		}
		start := time.Date(from, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(to, time.December, 31, 23, 59, 59, 0, time.UTC)
		return Value{Start: start, End: end, Precision: PrecisionYear, Range: true}, true
	}

	for _, tl := range textLayouts {
		if t, err := time.Parse(tl.layout, s); err == nil {
			return Value{Start: t, Precision: tl.precision}, true
		}
	}

	if circaRe.MatchString(s) {
		if m := firstYearRe.FindStringSubmatch(s); m != nil {
			return yearValue(m[1])
		}
	}

	return Value{}, false
}

func yearValue(y string) (Value, bool) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return Value{}, false
	}
	return Value{Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), Precision: PrecisionYear}, true
}

// Year extracts the year of a literal, falling back to the first run of four
// digits: "1908 (uncertain)" and "+1908-03-01T00:00:00Z" both yield 1908.
func Year(raw string) (int, bool) {
	if v, ok := Parse(raw); ok {
		return v.Start.Year(), true
	}
	m := firstYearRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}
