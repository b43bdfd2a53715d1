// Package timex holds small time helpers shared by config loaders and the
// sync components.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("3s", "1m30s") or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Clock returns the current time. Components take a Clock so tests can pin
// timestamps.
type Clock func() time.Time

// Now reads the clock, falling back to time.Now for a nil Clock.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// UnixMilli returns the clock reading in unix milliseconds, the unit every
// persisted timestamp uses.
func (c Clock) UnixMilli() int64 {
	return c.Now().UnixMilli()
}

// FixedClock returns a Clock that advances by step on every call, starting
// at start. Useful for deterministic ordering in tests.
func FixedClock(start time.Time, step time.Duration) Clock {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}
