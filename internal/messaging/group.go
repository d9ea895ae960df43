package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Runnable is a background component with an explicit lifecycle.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// Group starts and stops a set of runnables together. The optional closer
// (usually the shared subscriber) is closed after every member has stopped.
type Group struct {
	members []Runnable
	closer  io.Closer
	logger  *zap.Logger
}

// NewGroup creates an empty group. closer may be nil.
func NewGroup(closer io.Closer, logger *zap.Logger) *Group {
	return &Group{
		closer: closer,
		logger: logger,
	}
}

// Add registers a member. Members start in registration order.
func (g *Group) Add(member Runnable) {
	g.members = append(g.members, member)
}

// Len returns the number of registered members.
func (g *Group) Len() int {
	return len(g.members)
}

// Start starts every member. If one fails, the members already started are
// shut down in reverse order.
func (g *Group) Start(ctx context.Context) error {
	for i, member := range g.members {
		if err := member.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.members[j].Shutdown()
			}

			return fmt.Errorf("start member %d: %w", i, err)
		}
	}

	g.logger.Info("group started", zap.Int("members", len(g.members)))

	return nil
}

// Shutdown stops every member in reverse order and reports all failures.
func (g *Group) Shutdown() error {
	g.logger.Info("shutting down group", zap.Int("members", len(g.members)))

	var errs []error

	for i := len(g.members) - 1; i >= 0; i-- {
		if err := g.members[i].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if g.closer != nil {
		if err := g.closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
