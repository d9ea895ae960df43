package likes

import "sync"

const defaultLockStripes = 256

// UserLocks serializes actions per user with a fixed set of striped mutexes.
// Two users may share a stripe; one user always maps to the same stripe.
type UserLocks struct {
	stripes []sync.Mutex
}

// NewUserLocks creates a registry with n stripes (256 when n <= 0).
func NewUserLocks(n int) *UserLocks {
	if n <= 0 {
		n = defaultLockStripes
	}

	return &UserLocks{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the user's stripe and returns the function releasing it.
func (l *UserLocks) Lock(user UserID) func() {
	mu := &l.stripes[uint64(user)%uint64(len(l.stripes))]
	mu.Lock()

	return mu.Unlock
}
