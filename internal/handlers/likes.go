package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/likes-go/internal/hotkey"
	"github.com/serroba/likes-go/internal/likes"
	"go.uber.org/zap"
)

// Counter reads durable like counters.
type Counter interface {
	Count(ctx context.Context, item likes.ItemID) (int64, error)
}

// HotKeyLister exposes the detector's hot set.
type HotKeyLister interface {
	HotKeys() []hotkey.Item
}

type userKey struct{}

// ContextWithUser stores the current user in ctx.
func ContextWithUser(ctx context.Context, user likes.UserID) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the current user, if any.
func UserFromContext(ctx context.Context) (likes.UserID, bool) {
	user, ok := ctx.Value(userKey{}).(likes.UserID)

	return user, ok
}

// LikeHandler serves the like toggle, status, count and hot key endpoints.
type LikeHandler struct {
	service likes.Service
	counter Counter
	hotKeys HotKeyLister
	logger  *zap.Logger
}

// NewLikeHandler creates a new like handler.
func NewLikeHandler(service likes.Service, counter Counter, hotKeys HotKeyLister, logger *zap.Logger) *LikeHandler {
	return &LikeHandler{
		service: service,
		counter: counter,
		hotKeys: hotKeys,
		logger:  logger,
	}
}

func (h *LikeHandler) Like(ctx context.Context, req *ToggleRequest) (*LikeStatusResponse, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing current user")
	}

	item := likes.ItemID(req.Body.ItemID)
	if err := h.service.Like(ctx, user, item); err != nil {
		return nil, h.mapError(err)
	}

	return statusResponse(item, true), nil
}

func (h *LikeHandler) Unlike(ctx context.Context, req *ToggleRequest) (*LikeStatusResponse, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing current user")
	}

	item := likes.ItemID(req.Body.ItemID)
	if err := h.service.Unlike(ctx, user, item); err != nil {
		return nil, h.mapError(err)
	}

	return statusResponse(item, false), nil
}

func (h *LikeHandler) Status(ctx context.Context, req *ItemRequest) (*LikeStatusResponse, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing current user")
	}

	item := likes.ItemID(req.ItemID)

	liked, err := h.service.HasLiked(ctx, user, item)
	if err != nil {
		return nil, h.mapError(err)
	}

	return statusResponse(item, liked), nil
}

func (h *LikeHandler) Item(ctx context.Context, req *ItemRequest) (*ItemResponse, error) {
	item := likes.ItemID(req.ItemID)
	if err := item.Validate(); err != nil {
		return nil, h.mapError(err)
	}

	count, err := h.counter.Count(ctx, item)
	if err != nil {
		return nil, h.mapError(err)
	}

	resp := &ItemResponse{}
	resp.Body.ItemID = req.ItemID
	resp.Body.LikeCount = count

	return resp, nil
}

func (h *LikeHandler) HotKeys(_ context.Context, _ *struct{}) (*HotKeysResponse, error) {
	items := h.hotKeys.HotKeys()

	resp := &HotKeysResponse{}
	resp.Body.Keys = make([]HotKey, len(items))

	for i, item := range items {
		resp.Body.Keys[i] = HotKey{Key: item.Key, Count: item.Count}
	}

	return resp, nil
}

func (h *LikeHandler) mapError(err error) error {
	switch {
	case errors.Is(err, likes.ErrInvalidInput):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, likes.ErrConflict):
		return huma.Error409Conflict(err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))

		return huma.Error500InternalServerError("internal error")
	}
}

func statusResponse(item likes.ItemID, liked bool) *LikeStatusResponse {
	resp := &LikeStatusResponse{}
	resp.Body.ItemID = int64(item)
	resp.Body.Liked = liked

	return resp
}
