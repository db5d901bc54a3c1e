package clock

import (
	"time"
)

const (
	apiLayout   = "2006-01-02T15:04:05Z"
	stampLayout = "01021504"
	tableLayout = "2006-01-02 15:04:05"
)

func Now() string {
	return time.Now().UTC().Format(apiLayout)
}

// Stamp is a compact month-day-hour-minute stamp used in generated link titles
func Stamp(t time.Time) string {
	return t.Format(stampLayout)
}

// Local formats a time in the server's local zone for spreadsheets and messages,
// zero time gives an empty string
func Local(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(tableLayout)
}

// FromUnix converts provider unix seconds to time, zero stays zero
func FromUnix(sec int) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
