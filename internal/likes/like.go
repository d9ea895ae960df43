// Package likes holds the like/unlike domain: identities, time slices, the
// contracts of the fast and durable stores, and the toggle services.
package likes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput is returned for a request missing a valid item ID.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a toggle does not match the current membership.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyLiked is returned when liking an item the user already likes.
	ErrAlreadyLiked = fmt.Errorf("%w: already liked", ErrConflict)
	// ErrNotLiked is returned when unliking an item the user does not like.
	ErrNotLiked = fmt.Errorf("%w: not liked", ErrConflict)
)

// UserID identifies a user.
type UserID int64

// ItemID identifies a likeable content item.
type ItemID int64

func (id ItemID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

// Validate rejects missing (non-positive) item IDs.
func (id ItemID) Validate() error {
	if id <= 0 {
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}

	return nil
}

// Pair is one user's relationship to one item.
type Pair struct {
	UserID UserID
	ItemID ItemID
}

// Field is the event log field of the pair, "user:item".
func (p Pair) Field() string {
	return p.UserID.String() + ":" + p.ItemID.String()
}

// ParsePair parses an event log field produced by Pair.Field.
func ParsePair(field string) (Pair, error) {
	user, item, ok := strings.Cut(field, ":")
	if !ok {
		return Pair{}, fmt.Errorf("malformed field %q", field)
	}

	userID, err := strconv.ParseInt(user, 10, 64)
	if err != nil {
		return Pair{}, fmt.Errorf("malformed user in field %q: %w", field, err)
	}

	itemID, err := strconv.ParseInt(item, 10, 64)
	if err != nil {
		return Pair{}, fmt.Errorf("malformed item in field %q: %w", field, err)
	}

	return Pair{UserID: UserID(userID), ItemID: ItemID(itemID)}, nil
}

// Like is a durable like row.
type Like struct {
	ID     uuid.UUID
	UserID UserID
	ItemID ItemID
}

var rowNamespace = uuid.MustParse("6f1c9a52-3c0e-4b7e-9d7a-2f5b8e4c1a90")

// RowID returns the durable identifier of the like of item by user. It is
// derived from the pair so every writer agrees on it without coordination.
func RowID(user UserID, item ItemID) uuid.UUID {
	return uuid.NewSHA1(rowNamespace, []byte(Pair{UserID: user, ItemID: item}.Field()))
}

// NewLike builds the durable row for a pair.
func NewLike(p Pair) Like {
	return Like{ID: RowID(p.UserID, p.ItemID), UserID: p.UserID, ItemID: p.ItemID}
}

// Tombstone is the membership value meaning "known not liked".
const Tombstone = "0"

// IsLiked interprets a membership value.
func IsLiked(value string, found bool) bool {
	return found && value != "" && value != Tombstone
}
