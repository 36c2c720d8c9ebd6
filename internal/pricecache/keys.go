package pricecache

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Key namespaces. Hour and day keys can never collide.
const (
	hourPrefix = "HOUR:"
	dayPrefix  = "DAY:"
	dayLayout  = "2006-01-02"
)

// HourKey returns the hour-bucket key for ts: the start of its UTC hour
// in epoch seconds.
func HourKey(ts int64) string {
	start := time.Unix(ts, 0).UTC().Truncate(time.Hour).Unix()
	return hourPrefix + strconv.FormatInt(start, 10)
}

// DayKey returns the day-bucket key for ts: its UTC calendar date.
func DayKey(ts int64) string {
	return dayPrefix + time.Unix(ts, 0).UTC().Format(dayLayout)
}

// DayKeyFromDate validates a YYYY-MM-DD date and returns its day-bucket key.
func DayKeyFromDate(day string) (string, error) {
	d, err := time.Parse(dayLayout, strings.TrimSpace(day))
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", day, err)
	}
	return dayPrefix + d.Format(dayLayout), nil
}
