// Package countstore tracks how many automated actions have happened in
// named daily buckets. The posting cap and reply accounting sit on top of it.
package countstore

import (
	"context"
	"fmt"
	"time"
)

// CountStore is keyed by an action name and a day key. Day keys come from
// the caller so the configured timezone decides when a day rolls over; a new
// day means a fresh bucket, which is what makes the daily reset lazy and
// idempotent.
type CountStore interface {
	GetCount(ctx context.Context, name, day string) (int, error)
	Increment(ctx context.Context, name, day string) error
	// TryReserve increments and reports true only while the count is below
	// limit. A reservation taken for an action that then fails must be
	// handed back with Release.
	TryReserve(ctx context.Context, name, day string, limit int) (bool, error)
	Release(ctx context.Context, name, day string) error
}

// DayKey buckets a timestamp by calendar day. Pass a time already converted
// to the configured location; the key then changes exactly at local
// midnight.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func bucketKey(name, day string) string {
	return fmt.Sprintf("%s/%s", name, day)
}
