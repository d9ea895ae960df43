package likes

import "context"

// Service toggles and queries likes.
type Service interface {
	Like(ctx context.Context, user UserID, item ItemID) error
	Unlike(ctx context.Context, user UserID, item ItemID) error
	HasLiked(ctx context.Context, user UserID, item ItemID) (bool, error)
}

var (
	_ Service = (*BufferedService)(nil)
	_ Service = (*DirectService)(nil)
)
