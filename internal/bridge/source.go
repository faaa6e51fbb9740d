package bridge

import (
	"context"
)

// Source feeds raw events into the inbox the frame loop drains. Open must
// not block; the source delivers from its own goroutine or from frame timers.
type Source interface {
	Open(ctx context.Context, inbox chan<- []byte) error
	Close() error
}
