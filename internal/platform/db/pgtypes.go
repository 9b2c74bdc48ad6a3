package db

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const microsPerMinute = int64(time.Minute / time.Microsecond)

// TimeParam encodes minutes since midnight for a TIME column.
func TimeParam(minutes int) pgtype.Time {
	return pgtype.Time{Microseconds: int64(minutes) * microsPerMinute, Valid: true}
}

// TimeMinutes decodes a TIME column to minutes since midnight, dropping
// seconds.
func TimeMinutes(t pgtype.Time) int {
	return int(t.Microseconds / microsPerMinute)
}

// TimeMinutesCeil is TimeMinutes rounding a partial minute up. Use it for
// the end of a blocked range so the range never shrinks.
func TimeMinutesCeil(t pgtype.Time) int {
	return int((t.Microseconds + microsPerMinute - 1) / microsPerMinute)
}
