package likes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BufferedService records toggles in the time-sliced event log. The durable
// store is updated later by the write-behind jobs.
type BufferedService struct {
	log         EventLog
	cache       MembershipCache
	granularity time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// NewBufferedService creates a write-behind toggle service. A nil clock
// defaults to time.Now.
func NewBufferedService(
	log EventLog,
	cache MembershipCache,
	granularity time.Duration,
	clock func() time.Time,
	logger *zap.Logger,
) *BufferedService {
	if clock == nil {
		clock = time.Now
	}

	return &BufferedService{
		log:         log,
		cache:       cache,
		granularity: granularity,
		now:         clock,
		logger:      logger,
	}
}

func (s *BufferedService) Like(ctx context.Context, user UserID, item ItemID) error {
	if err := item.Validate(); err != nil {
		return err
	}

	rowID := RowID(user, item).String()
	slice := SliceOf(s.now(), s.granularity)

	result, err := s.log.Like(ctx, slice, Pair{UserID: user, ItemID: item}, rowID)
	if err != nil {
		return fmt.Errorf("record like: %w", err)
	}

	if result != Success {
		return ErrAlreadyLiked
	}

	s.cache.PutIfPresent(UserLikeKey(user), item.String(), rowID)

	s.logger.Debug("like recorded",
		zap.Int64("user_id", int64(user)),
		zap.Int64("item_id", int64(item)),
		zap.String("slice", string(slice)),
	)

	return nil
}

func (s *BufferedService) Unlike(ctx context.Context, user UserID, item ItemID) error {
	if err := item.Validate(); err != nil {
		return err
	}

	slice := SliceOf(s.now(), s.granularity)

	result, err := s.log.Unlike(ctx, slice, Pair{UserID: user, ItemID: item})
	if err != nil {
		return fmt.Errorf("record unlike: %w", err)
	}

	if result != Success {
		return ErrNotLiked
	}

	s.cache.PutIfPresent(UserLikeKey(user), item.String(), Tombstone)

	s.logger.Debug("unlike recorded",
		zap.Int64("user_id", int64(user)),
		zap.Int64("item_id", int64(item)),
		zap.String("slice", string(slice)),
	)

	return nil
}

func (s *BufferedService) HasLiked(ctx context.Context, user UserID, item ItemID) (bool, error) {
	if err := item.Validate(); err != nil {
		return false, err
	}

	value, found, err := s.cache.Get(ctx, UserLikeKey(user), item.String())
	if err != nil {
		return false, fmt.Errorf("read membership: %w", err)
	}

	return IsLiked(value, found), nil
}
