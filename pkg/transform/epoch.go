package transform

import "time"

// Epoch is the reference date of the raw day-offset encoding.
var Epoch = time.Date(1960, time.January, 1, 0, 0, 0, 0, time.UTC)

const secondsPerDay = 24 * 60 * 60

// OffsetToDate converts a day offset to a calendar date.
func OffsetToDate(days int64) time.Time {
	return Epoch.AddDate(0, 0, int(days))
}

// DateToOffset is the inverse of OffsetToDate. Days are counted from Unix
// seconds; a time.Duration would saturate about 292 years after the epoch.
func DateToOffset(t time.Time) int64 {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return (midnight.Unix() - Epoch.Unix()) / secondsPerDay
}
