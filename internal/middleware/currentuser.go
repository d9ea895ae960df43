package middleware

import (
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/likes-go/internal/handlers"
	"github.com/serroba/likes-go/internal/likes"
)

// UserHeader carries the authenticated user ID set by the upstream gateway.
const UserHeader = "X-User-ID"

// CurrentUser is a middleware that adds the current user to the request
// context. Requests without a valid user ID pass through anonymously.
func CurrentUser(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if user, ok := parseUser(ctx.Header(UserHeader)); ok {
			ctx = huma.WithContext(ctx, handlers.ContextWithUser(ctx.Context(), user))
		}

		next(ctx)
	}
}

func parseUser(header string) (likes.UserID, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return likes.UserID(id), true
}
