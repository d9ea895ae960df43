package likes

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// TempLikeKeyPrefix prefixes the event log hash of a time slice.
	TempLikeKeyPrefix = "like:temp:"
	// UserLikeKeyPrefix prefixes a user's membership hash.
	UserLikeKeyPrefix = "like:user:"

	// DefaultGranularity is the width of a time slice.
	DefaultGranularity = 10 * time.Second

	sliceLayout = "15:04:05"
)

// TimeSlice labels a window of wall-clock time, formatted as HH:MM:SS.
type TimeSlice string

// SliceOf returns the slice containing t, truncated to granularity.
func SliceOf(t time.Time, granularity time.Duration) TimeSlice {
	return TimeSlice(t.UTC().Truncate(granularity).Format(sliceLayout))
}

// Key returns the event log key of the slice.
func (s TimeSlice) Key() string {
	return TempLikeKeyPrefix + string(s)
}

// Validate checks that the label is a well formed HH:MM:SS time.
func (s TimeSlice) Validate() error {
	if _, err := time.Parse(sliceLayout, string(s)); err != nil {
		return fmt.Errorf("%w: time slice %q", ErrInvalidInput, string(s))
	}

	return nil
}

// SliceFromKey extracts the slice label from an event log key.
func SliceFromKey(key string) (TimeSlice, bool) {
	label, ok := strings.CutPrefix(key, TempLikeKeyPrefix)
	if !ok || label == "" {
		return "", false
	}

	return TimeSlice(label), true
}

// UserLikeKey returns the membership hash key of a user.
func UserLikeKey(user UserID) string {
	return UserLikeKeyPrefix + user.String()
}

// Delta is the encoded net effect of toggles on one pair within a slice.
type Delta int

const (
	NoOp      Delta = 0
	Increment Delta = 1
	Decrement Delta = -1
)

// ParseDelta decodes a stored delta. Values outside the recognized set are
// reported as errors.
func ParseDelta(value string) (Delta, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return NoOp, fmt.Errorf("unrecognized delta %q: %w", value, err)
	}

	switch d := Delta(n); d {
	case NoOp, Increment, Decrement:
		return d, nil
	default:
		return NoOp, fmt.Errorf("unrecognized delta %q", value)
	}
}

// AggregateCount accumulates the signed like delta per item.
type AggregateCount map[ItemID]int64
