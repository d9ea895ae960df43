// Package writebehind folds the time-sliced event log into the durable store.
package writebehind

import (
	"github.com/serroba/likes-go/internal/likes"
)

// Warning describes an event log entry that was skipped during aggregation.
type Warning struct {
	Field  string
	Value  string
	Reason string
}

// Batch is the durable work derived from one drained slice.
type Batch struct {
	Inserts  []likes.Like
	Deletes  []likes.Pair
	Counts   likes.AggregateCount
	Warnings []Warning
}

// Empty reports whether the batch has nothing to write.
func (b Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.Deletes) == 0
}

// Aggregate decodes drained fields into inserts, deletes and per-item deltas.
// NoOp entries are skipped. Malformed fields and unknown values are reported
// as warnings and skipped.
func Aggregate(fields map[string]string) Batch {
	batch := Batch{Counts: make(likes.AggregateCount)}

	for field, value := range fields {
		pair, err := likes.ParsePair(field)
		if err != nil {
			batch.Warnings = append(batch.Warnings, Warning{Field: field, Value: value, Reason: err.Error()})

			continue
		}

		delta, err := likes.ParseDelta(value)
		if err != nil {
			batch.Warnings = append(batch.Warnings, Warning{Field: field, Value: value, Reason: err.Error()})

			continue
		}

		switch delta {
		case likes.Increment:
			batch.Inserts = append(batch.Inserts, likes.NewLike(pair))
			batch.Counts[pair.ItemID]++
		case likes.Decrement:
			batch.Deletes = append(batch.Deletes, pair)
			batch.Counts[pair.ItemID]--
		case likes.NoOp:
		}
	}

	for item, delta := range batch.Counts {
		if delta == 0 {
			delete(batch.Counts, item)
		}
	}

	return batch
}
