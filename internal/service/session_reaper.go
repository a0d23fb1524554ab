package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/kedaara/performance-hub/internal/ports"
)

// DefaultReaperInterval is used when SessionReaperOptions.Interval is not set.
const DefaultReaperInterval = 15 * time.Minute

// SessionReaperOptions groups dependencies for SessionReaper.
type SessionReaperOptions struct {
	Store    ports.SessionPurger // Required
	Interval time.Duration
	Logger   *slog.Logger
}

// SessionReaper periodically deletes expired Session slots from stores that
// do not expire keys on their own (Postgres).
type SessionReaper struct {
	store    ports.SessionPurger
	interval time.Duration
	logger   *slog.Logger
}

// NewSessionReaper constructs a SessionReaper.
func NewSessionReaper(opts SessionReaperOptions) (*SessionReaper, error) {
	if opts.Store == nil {
		return nil, errors.New("SessionPurger is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultReaperInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionReaper{
		store:    opts.Store,
		interval: opts.Interval,
		logger:   logger.With("component", "session_reaper"),
	}, nil
}

// Run purges expired sessions every interval until ctx is cancelled.
// Returns nil on graceful shutdown.
func (r *SessionReaper) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session reaper", "interval", r.interval)

	// Replicas started together should not purge in lockstep.
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.purge(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.purge(ctx)
		}
	}
}

// purge runs one pass. Failures are logged and retried on the next tick.
func (r *SessionReaper) purge(ctx context.Context) int64 {
	if ctx.Err() != nil {
		return 0
	}
	start := time.Now()
	n, err := r.store.PurgeExpired(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.ErrorContext(ctx, "session purge failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		r.logger.InfoContext(ctx, "purged expired sessions", "count", n, "elapsed", time.Since(start))
	}
	return n
}

// waitWithJitter sleeps up to 10% of the interval.
func (r *SessionReaper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
