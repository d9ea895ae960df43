package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the like, item and hot key routes.
func RegisterRoutes(api huma.API, h *LikeHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "like-item",
		Method:        http.MethodPost,
		Path:          "/likes",
		DefaultStatus: http.StatusOK,
		Summary:       "Like an item",
		Description:   "Records a like of the item by the current user. Fails with 409 if already liked.",
		Tags:          []string{"Likes"},
	}, h.Like)

	huma.Register(api, huma.Operation{
		OperationID:   "unlike-item",
		Method:        http.MethodPost,
		Path:          "/likes/undo",
		DefaultStatus: http.StatusOK,
		Summary:       "Unlike an item",
		Description:   "Withdraws the current user's like of the item. Fails with 409 if not liked.",
		Tags:          []string{"Likes"},
	}, h.Unlike)

	huma.Register(api, huma.Operation{
		OperationID: "get-like-status",
		Method:      http.MethodGet,
		Path:        "/likes/{itemId}",
		Summary:     "Get like status",
		Tags:        []string{"Likes"},
	}, h.Status)

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/items/{itemId}",
		Summary:     "Get item like count",
		Description: "Returns the durable like count. Recent toggles appear after the next sync.",
		Tags:        []string{"Items"},
	}, h.Item)

	huma.Register(api, huma.Operation{
		OperationID: "list-hot-keys",
		Method:      http.MethodGet,
		Path:        "/hotkeys",
		Summary:     "List hot keys",
		Tags:        []string{"Cache"},
	}, h.HotKeys)
}
