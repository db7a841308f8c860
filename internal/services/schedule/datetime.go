package schedule

import (
	"strconv"
	"strings"
	"time"
)

// futureSlack is how far ahead of now an inferred date may land before it is moved back a year.
const futureSlack = 30 * 24 * time.Hour

// InferDatetime turns a yearless "dd/mm" and "hh:mm" pair into an instant in loc.
// Missing or zero parts fall back to the first of January at midnight.
func InferDatetime(date, clock string, now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	dp := strings.Split(date, "/")
	tp := strings.Split(clock, ":")

	day := partOr(dp, 0, 1)
	month := partOr(dp, 1, 1)
	hour := partOr(tp, 0, 0)
	minute := partOr(tp, 1, 0)

	year := now.In(loc).Year()
	dt := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	if dt.Sub(now) > futureSlack {
		dt = time.Date(year-1, time.Month(month), day, hour, minute, 0, 0, loc)
	}
	dt = dt.UTC()
	return &dt
}

func partOr(parts []string, i, def int) int {
	if i >= len(parts) {
		return def
	}
	n, err := strconv.Atoi(leadingDigits(parts[i]))
	if err != nil || n == 0 {
		return def
	}
	return n
}

func leadingDigits(s string) string {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
