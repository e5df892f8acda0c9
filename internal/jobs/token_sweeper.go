// Package jobs holds long-running background work started alongside the HTTP
// server.
//
// token_sweeper.go implements the TokenSweeper job, which periodically deletes
// refresh tokens older than the refresh token lifetime. Such tokens can no
// longer pass signature verification, so their rows only serve to grow the
// refresh_tokens table.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/worknest/worknest/internal/telemetry"
)

// DefaultSweepInterval is used when NewTokenSweeper is given a non-positive interval.
const DefaultSweepInterval = time.Hour

// RefreshTokenPurger is the storage the sweeper needs.
type RefreshTokenPurger interface {
	DeleteRefreshTokensBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TokenSweeper periodically purges expired refresh tokens.
type TokenSweeper struct {
	tokens   RefreshTokenPurger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTokenSweeper creates a sweeper for tokens older than ttl.
func NewTokenSweeper(tokens RefreshTokenPurger, ttl, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &TokenSweeper{
		tokens:   tokens,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately, then repeats on the configured interval
// until ctx is cancelled or Stop is called. It blocks.
func (s *TokenSweeper) Start(ctx context.Context) {
	if s.ttl <= 0 {
		slog.Info("token sweeper disabled", "reason", "refresh token ttl not set")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("token sweeper started", "interval", s.interval, "ttl", s.ttl)
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			slog.Info("token sweeper stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals the loop to exit. Safe to call more than once.
func (s *TokenSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.ttl)
	n, err := s.tokens.DeleteRefreshTokensBefore(ctx, cutoff)
	if err != nil {
		slog.Error("token sweep failed", "error", err)
		return
	}
	if n > 0 {
		telemetry.RefreshTokensPurgedTotal.Add(float64(n))
		slog.Info("purged expired refresh tokens", "count", n, "cutoff", cutoff)
	}
}
