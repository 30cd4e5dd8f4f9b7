package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskdesk/todo-service/internal/core/domain"
	"github.com/taskdesk/todo-service/internal/pkg/metrics"
)

const (
	defaultSweepInterval = 30 * time.Second
	lookupTimeout        = 2 * time.Second
)

// SessionLookup resolves a session id to its user id, returning
// domain.ErrSessionNotFound once the session record is gone.
type SessionLookup interface {
	Lookup(ctx context.Context, sessionID string) (string, error)
}

// Reaper closes live sessions whose session record has expired or been
// revoked. Session records carry the token TTL, so an expired token and a
// sign-out on another instance both end here.
type Reaper struct {
	reg      *Registry
	store    SessionLookup
	interval time.Duration
	log      zerolog.Logger
}

func NewReaper(reg *Registry, store SessionLookup, interval time.Duration, log zerolog.Logger) *Reaper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Reaper{reg: reg, store: store, interval: interval, log: log}
}

// Run sweeps every interval until ctx is done.
func (rp *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rp.Sweep(ctx); n > 0 {
				rp.log.Info().Int("closed", n).Msg("reaped expired sessions")
			}
		}
	}
}

// Sweep checks every live session once and reports how many it closed.
// Lookup failures other than a missing record leave the session open.
func (rp *Reaper) Sweep(ctx context.Context) int {
	closed := 0
	for _, s := range rp.reg.live() {
		if ctx.Err() != nil {
			return closed
		}
		lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
		userID, err := rp.store.Lookup(lookupCtx, s.id)
		cancel()

		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			rp.log.Warn().Err(err).Str("session_id", s.id).Msg("session lookup failed")
			continue
		}
		if err == nil && userID == s.Identity().UserID {
			continue
		}

		if rp.reg.Close(s.id) {
			metrics.SessionsReapedTotal.Inc()
			closed++
		}
	}
	return closed
}
