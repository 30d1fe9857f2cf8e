// Package sources implements the log origins lanternd can serve: file
// tails and journald units.
package sources

import (
	"context"

	"github.com/lanternhq/lantern/pkg/core"
)

// Source is a tailable log origin.
type Source interface {
	// ID returns the source identifier used in stream paths.
	ID() string

	// Name returns the display name.
	Name() string

	// Tail starts streaming lines. The channel closes when ctx is
	// cancelled or the underlying source ends.
	Tail(ctx context.Context) (<-chan core.LogLine, error)
}
