package telemetry

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// DefaultLimit is the number of logs returned when no usable limit is given.
const DefaultLimit = 10

// DefaultRange is the usage window applied when the caller omits one.
const DefaultRange = "24h"

// Bounds keep the window arithmetic inside time.Duration.
const (
	maxRangeHours = math.MaxInt64 / int64(time.Hour)
	maxRangeDays  = maxRangeHours / 24
)

// ParseLimit converts a raw limit parameter. Leading digits are used and
// anything after them ignored, so "5x" is 5. An absent, non-numeric, zero
// or negative value yields DefaultLimit.
func ParseLimit(raw string) int {
	n, ok := leadingInt(raw)
	if !ok || n <= 0 {
		return DefaultLimit
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// ParseRange returns the start of the usage window described by rng,
// counted back from now.
//
// "<N>h" is N hours and "<N>d" is N calendar days. The first "h" (or "d")
// is removed and the leading integer of what remains is used. Any other
// form, or one without a leading integer, gives a zero-width window
// starting at now.
func ParseRange(rng string, now time.Time) time.Time {
	switch {
	case strings.HasSuffix(rng, "h"):
		n, ok := leadingInt(strings.Replace(rng, "h", "", 1))
		if !ok {
			return now
		}
		n = clamp(n, maxRangeHours)
		return now.Add(-time.Duration(n) * time.Hour)

	case strings.HasSuffix(rng, "d"):
		n, ok := leadingInt(strings.Replace(rng, "d", "", 1))
		if !ok {
			return now
		}
		n = clamp(n, maxRangeDays)
		return now.AddDate(0, 0, -int(n))
	}
	return now
}

// leadingInt parses an optional sign and the run of digits at the start of
// s after leading whitespace. ok is false when there are no digits.
// Values beyond int64 saturate.
func leadingInt(s string) (n int64, ok bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		sign, s = s[:1], s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, _ = strconv.ParseInt(sign+s[:end], 10, 64) //nolint:errcheck // only range errors, which saturate n
	return n, true
}

func clamp(n, limit int64) int64 {
	if n > limit {
		return limit
	}
	if n < -limit {
		return -limit
	}
	return n
}
