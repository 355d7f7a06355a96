package servers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StartJanitor runs periodic physical cleanup of the directory plus any
// extra sweep functions (e.g. the challenge store) until ctx is cancelled.
func StartJanitor(ctx context.Context, d *Directory, interval time.Duration, log zerolog.Logger, sweeps ...func(time.Time)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := d.Prune(now); removed > 0 {
					log.Debug().Int("removed", removed).Int("remaining", d.Len()).Msg("pruned stale servers")
				}
				for _, sweep := range sweeps {
					sweep(now)
				}
			}
		}
	}()
}
