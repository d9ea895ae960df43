package likes

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DirectService writes every toggle to the durable store synchronously.
// Actions of one user are serialized so the membership check and the durable
// write behave as one step.
type DirectService struct {
	repo       Repository
	membership Membership
	cache      MembershipCache
	locks      *UserLocks
	logger     *zap.Logger
}

// NewDirectService creates a synchronous toggle service.
func NewDirectService(
	repo Repository,
	membership Membership,
	cache MembershipCache,
	locks *UserLocks,
	logger *zap.Logger,
) *DirectService {
	return &DirectService{
		repo:       repo,
		membership: membership,
		cache:      cache,
		locks:      locks,
		logger:     logger,
	}
}

func (s *DirectService) Like(ctx context.Context, user UserID, item ItemID) error {
	if err := item.Validate(); err != nil {
		return err
	}

	unlock := s.locks.Lock(user)
	defer unlock()

	pair := Pair{UserID: user, ItemID: item}

	liked, err := s.hasLiked(ctx, pair)
	if err != nil {
		return err
	}

	if liked {
		return ErrAlreadyLiked
	}

	row := NewLike(pair)

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		inserted, err := tx.InsertLikes(ctx, []Like{row})
		if err != nil {
			return err
		}

		if len(inserted) == 0 {
			return ErrAlreadyLiked
		}

		return tx.AdjustCounts(ctx, AggregateCount{item: 1})
	})
	if err != nil {
		return wrapTxErr("like", err)
	}

	s.remember(ctx, pair, row.ID.String())

	return nil
}

func (s *DirectService) Unlike(ctx context.Context, user UserID, item ItemID) error {
	if err := item.Validate(); err != nil {
		return err
	}

	unlock := s.locks.Lock(user)
	defer unlock()

	pair := Pair{UserID: user, ItemID: item}

	liked, err := s.hasLiked(ctx, pair)
	if err != nil {
		return err
	}

	if !liked {
		return ErrNotLiked
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		deleted, err := tx.DeleteLikes(ctx, []Pair{pair})
		if err != nil {
			return err
		}

		if len(deleted) == 0 {
			return ErrNotLiked
		}

		return tx.AdjustCounts(ctx, AggregateCount{item: -1})
	})
	if err != nil {
		return wrapTxErr("unlike", err)
	}

	s.remember(ctx, pair, Tombstone)

	return nil
}

func (s *DirectService) HasLiked(ctx context.Context, user UserID, item ItemID) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}

	return s.hasLiked(ctx, Pair{UserID: user, ItemID: item})
}

// hasLiked reads membership through the tiered cache and falls back to the
// durable store on a miss, filling the membership map with the answer.
func (s *DirectService) hasLiked(ctx context.Context, pair Pair) (bool, error) {
	hashKey, field := UserLikeKey(pair.UserID), pair.ItemID.String()

	value, found, err := s.cache.Get(ctx, hashKey, field)
	if err != nil {
		return false, fmt.Errorf("read membership: %w", err)
	}

	if found {
		return IsLiked(value, found), nil
	}

	exists, err := s.repo.Exists(ctx, pair)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}

	value = Tombstone
	if exists {
		value = RowID(pair.UserID, pair.ItemID).String()
	}

	// HSETNX never overwrites a value written by a concurrent toggle.
	if _, err := s.membership.FillMembership(ctx, hashKey, field, value); err != nil {
		s.logger.Warn("failed to fill membership",
			zap.String("key", hashKey),
			zap.String("field", field),
			zap.Error(err),
		)
	}

	return exists, nil
}

// remember publishes a committed toggle to the membership map and the local tier.
func (s *DirectService) remember(ctx context.Context, pair Pair, value string) {
	hashKey, field := UserLikeKey(pair.UserID), pair.ItemID.String()

	if err := s.membership.SetMembership(ctx, hashKey, field, value); err != nil {
		s.logger.Error("failed to update membership after commit",
			zap.String("key", hashKey),
			zap.String("field", field),
			zap.Error(err),
		)
	}

	s.cache.PutIfPresent(hashKey, field, value)
}

func wrapTxErr(op string, err error) error {
	if errors.Is(err, ErrConflict) {
		return err
	}

	return fmt.Errorf("%s: %w", op, err)
}
