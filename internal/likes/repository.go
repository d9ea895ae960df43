package likes

import "context"

// ToggleResult is the outcome of an atomic toggle against the event log.
type ToggleResult int

const (
	Fail    ToggleResult = -1
	Success ToggleResult = 1
)

// EventLog is the time-sliced buffer of toggles kept in the shared fast store,
// together with the per-user membership maps the toggles are checked against.
type EventLog interface {
	// Like atomically records +1 for the pair in slice and marks the item as
	// liked with rowID, unless the user already likes it.
	Like(ctx context.Context, slice TimeSlice, pair Pair, rowID string) (ToggleResult, error)

	// Unlike atomically records -1 for the pair in slice and clears the
	// membership, unless the user does not like the item.
	Unlike(ctx context.Context, slice TimeSlice, pair Pair) (ToggleResult, error)

	// Drain returns every field of the slice. An absent slice yields an empty map.
	Drain(ctx context.Context, slice TimeSlice) (map[string]string, error)

	// Delete removes the slice. Deleting an absent slice is not an error.
	Delete(ctx context.Context, slice TimeSlice) error

	// Slices lists every slice still present in the log.
	Slices(ctx context.Context) ([]TimeSlice, error)
}

// Membership writes the per-user membership maps directly.
type Membership interface {
	// SetMembership overwrites the value of a field.
	SetMembership(ctx context.Context, hashKey, field, value string) error

	// FillMembership sets a field only if it is absent and reports whether it did.
	FillMembership(ctx context.Context, hashKey, field, value string) (bool, error)
}

// MembershipCache reads membership through the tiered cache.
type MembershipCache interface {
	Get(ctx context.Context, hashKey, field string) (string, bool, error)
	PutIfPresent(hashKey, field, value string)
}

// Repository is the durable store of like rows and per-item counters.
type Repository interface {
	// WithinTx runs fn in a transaction, committing when it returns nil and
	// rolling back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Exists reports whether a like row exists for the pair.
	Exists(ctx context.Context, pair Pair) (bool, error)

	// Count returns the durable like counter of an item.
	Count(ctx context.Context, item ItemID) (int64, error)
}

// Tx is the set of writes composable within one durable transaction.
type Tx interface {
	// InsertLikes inserts rows, ignoring rows that already exist, and returns
	// the pairs actually inserted.
	InsertLikes(ctx context.Context, rows []Like) ([]Pair, error)

	// DeleteLikes removes the rows matching pairs and returns the pairs
	// actually removed.
	DeleteLikes(ctx context.Context, pairs []Pair) ([]Pair, error)

	// AdjustCounts adds each delta to its item's counter.
	AdjustCounts(ctx context.Context, counts AggregateCount) error
}
