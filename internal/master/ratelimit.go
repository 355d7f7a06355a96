package master

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterPool keeps one token bucket per client IP so a single chatty or
// hostile host cannot monopolize the datagram loop.
type limiterPool struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*clientLimiter
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterPool(limit rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*clientLimiter),
	}
}

func (p *limiterPool) allow(ip string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.limiters[ip]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup drops buckets idle for over ten minutes, every five minutes,
// until ctx is cancelled.
func (p *limiterPool) cleanup(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			for ip, entry := range p.limiters {
				if time.Since(entry.lastSeen) > 10*time.Minute {
					delete(p.limiters, ip)
				}
			}
			p.mu.Unlock()
		}
	}
}
