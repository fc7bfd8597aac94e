// Package main provides the FAIX chatbot server entry point.
package main

import (
	"context"
	"time"

	"github.com/shanle1117/workshop2-sub001/internal/directory"
	"github.com/shanle1117/workshop2-sub001/internal/logger"
	"github.com/shanle1117/workshop2-sub001/internal/storage"
)

const (
	// sessionTTL is how long an idle session's context is kept.
	sessionTTL = 7 * 24 * time.Hour
	// sessionPurgeInterval is how often stale sessions are purged.
	sessionPurgeInterval = time.Hour
	// staffRefreshInterval is how often the live staff page is re-scraped.
	staffRefreshInterval = 24 * time.Hour
)

// purgeStaleSessions deletes session contexts idle for longer than
// sessionTTL. Runs until the context is canceled.
func purgeStaleSessions(ctx context.Context, sessions *storage.SessionRepository, log *logger.Logger) {
	log = log.WithModule("jobs")
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.DeleteOlderThan(ctx, time.Now().Add(-sessionTTL))
			if err != nil {
				log.WithError(err).Warn("Session purge failed")
				continue
			}
			if deleted > 0 {
				log.WithField("deleted", deleted).Info("Stale sessions purged")
			}
		}
	}
}

// refreshStaffDirectory re-scrapes the staff page on a daily cadence so
// contact answers stay current without a restart.
func refreshStaffDirectory(ctx context.Context, dir *directory.Directory, log *logger.Logger) {
	log = log.WithModule("jobs")
	ticker := time.NewTicker(staffRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dir.Refresh(ctx); err != nil {
				// The previous roster stays active on failure.
				log.WithError(err).Warn("Staff directory refresh failed")
				continue
			}
			log.WithField("staff", dir.Count()).Info("Staff directory refreshed")
		}
	}
}
