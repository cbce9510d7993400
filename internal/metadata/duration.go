package metadata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoDurationRe = regexp.MustCompile(
	`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`,
)

// ParseISODuration parses an ISO-8601 duration such as "PT1H2M3S" or
// "P1DT30M". Years and months are not supported since they have no
// fixed length. It reports false for empty or malformed input and for
// durations that do not fit in a time.Duration.
func ParseISODuration(s string) (time.Duration, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "P" || strings.HasSuffix(s, "T") {
		return 0, false
	}

	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var (
		total time.Duration
		ok    bool
	)
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil || n > math.MaxInt64/int64(unit) {
			return 0, false
		}
		if total, ok = addDuration(total, time.Duration(n)*unit); !ok {
			return 0, false
		}
	}

	if m[5] != "" {
		secs, err := strconv.ParseFloat(m[5], 64)
		if err != nil || secs*float64(time.Second) >= math.MaxInt64 {
			return 0, false
		}
		if total, ok = addDuration(total, time.Duration(secs*float64(time.Second))); !ok {
			return 0, false
		}
	}

	return total, true
}

// addDuration adds two non-negative durations, reporting false on overflow
func addDuration(a, b time.Duration) (time.Duration, bool) {
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
