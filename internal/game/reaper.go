package game

import (
	"context"
	"log/slog"
	"time"
)

const reaperInterval = time.Minute

// StartReaper runs a background goroutine that periodically sweeps the
// session registry. Unfinished sessions idle past the TTL are cashed out on
// the player's behalf (the voluntary-quit path, so any uncollected payout is
// still credited); settled sessions idle past the TTL are evicted.
func StartReaper(ctx context.Context, m *Manager, ttl time.Duration) {
	ticker := time.NewTicker(reaperInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", reaperInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				reapIdleSessions(m, ttl)
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func reapIdleSessions(m *Manager, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	reaped := 0

	for userID, session := range m.snapshotSessions() {
		if session.LastActivity().After(cutoff) {
			continue
		}

		if !session.Settled() {
			slog.Info("Reaping idle game session",
				"user_id", userID,
				"session_id", session.ID)
			session.CashOut()
			// A session stuck in the reveal delay refuses the cash-out;
			// it will settle on its own and be evicted next sweep.
			if !session.Settled() {
				continue
			}
		}

		m.Remove(userID, session)
		reaped++
	}

	if reaped > 0 {
		slog.Info("Session reaper sweep completed", "evicted", reaped)
	}
}
