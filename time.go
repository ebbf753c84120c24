package custody

import (
	"context"
	"encoding/json"
	"time"

	"github.com/iov-one/custody/errors"
)

// Timestamp represents a point in time as milliseconds since the UNIX epoch.
// This type comes in handy when dealing with protobuf messages. Instead of
// using Go's time.Time declare an uint64 field and cast.
//
// Zero value means "not set".
type Timestamp uint64

// AsTimestamp converts given Time structure into its millisecond
// representation.
func AsTimestamp(t time.Time) Timestamp {
	ms := t.UnixNano() / int64(time.Millisecond)
	if ms < 0 {
		return 0
	}
	return Timestamp(ms)
}

// NowTimestamp returns the current time of given context.
func NowTimestamp(ctx context.Context) Timestamp {
	return AsTimestamp(Now(ctx))
}

// Time returns a time.Time structure that represents the same moment in time.
func (t Timestamp) Time() time.Time {
	return time.Unix(0, int64(t)*int64(time.Millisecond)).UTC()
}

// IsZero returns true if this time represents a zero value.
func (t Timestamp) IsZero() bool {
	return t == 0
}

// Add modifies this timestamp by given duration. Durations below a
// millisecond are dropped.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return t + Timestamp(d/time.Millisecond)
}

// Before returns true if t is strictly before other.
func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

// UnmarshalJSON supports unmarshaling both as time.Time and from a number.
// Usually a number is used as a representation of this time in JSON but it is
// convinient to use a string format in configurations (ie genesis file).
func (t *Timestamp) UnmarshalJSON(raw []byte) error {
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		if ms < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = Timestamp(ms)
		return nil
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err == nil {
		if stdtime.Before(time.Unix(0, 0)) {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = AsTimestamp(stdtime)
		return nil
	}

	return errors.Wrap(errors.ErrInput, "invalid time format")
}

// String returns the usual string representation of this time as the time.Time
// structure would.
func (t Timestamp) String() string {
	if t.IsZero() {
		return "(unset)"
	}
	return t.Time().Format(time.RFC3339Nano)
}
