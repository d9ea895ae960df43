package handlers

// ToggleRequest is the request body for liking or unliking an item.
type ToggleRequest struct {
	Body struct {
		ItemID int64 `doc:"The item to toggle" example:"42" json:"itemId"`
	}
}

// LikeStatusResponse reports whether the current user likes an item.
type LikeStatusResponse struct {
	Body struct {
		ItemID int64 `doc:"The item"                          example:"42"   json:"itemId"`
		Liked  bool  `doc:"Whether the current user likes it" example:"true" json:"liked"`
	}
}

// ItemRequest addresses an item by path.
type ItemRequest struct {
	ItemID int64 `doc:"The item" example:"42" path:"itemId"`
}

// ItemResponse is the durable like count of an item.
type ItemResponse struct {
	Body struct {
		ItemID    int64 `doc:"The item"                example:"42"  json:"itemId"`
		LikeCount int64 `doc:"Durable number of likes" example:"128" json:"likeCount"`
	}
}

// HotKey is one entry of the hot set.
type HotKey struct {
	Key   string `doc:"Cache key"       example:"like:user:7:42" json:"key"`
	Count uint32 `doc:"Estimated count" example:"311"            json:"count"`
}

// HotKeysResponse lists the current hot set.
type HotKeysResponse struct {
	Body struct {
		Keys []HotKey `json:"keys"`
	}
}
