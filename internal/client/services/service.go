package services

import (
	"context"
	"errors"
	"time"

	"github.com/nixixoo/Notex/internal/common"
)

func isNotFound(err error) bool { return errors.Is(err, common.ErrNotFound) }

// reloadTimeout bounds the cache refresh triggered by a mode transition.
const reloadTimeout = 15 * time.Second

// watchSession invokes reload for every distinct session state received on
// ch, including the replayed current state at subscribe time. Consecutive
// identical states are dropped so a profile refresh within the same mode
// does not cause a duplicate render. Returns when ch is closed.
func watchSession(ch <-chan SessionState, reload func(ctx context.Context)) {
	var prev SessionState
	first := true
	for st := range ch {
		if !first && st == prev {
			continue
		}
		prev, first = st, false

		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		reload(ctx)
		cancel()
	}
}
