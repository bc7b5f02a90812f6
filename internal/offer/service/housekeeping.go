package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/store"
)

// HousekeepingService periodically removes expired handoff records and
// stale memo entries so neither store grows without bound.
type HousekeepingService struct {
	Store    store.Store
	Memo     *TokenMemo
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 minute; records
// only live for 5, so sweeping hourly would be pointless.
func NewHousekeepingService(st store.Store, memo *TokenMemo, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Store:    st,
		Memo:     memo,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker, blocking until any in-progress sweep ends.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

// sweep performs the actual cleanup. The two sweeps are independent; a
// failure in one does not stop the other.
func (s *HousekeepingService) sweep() {
	ctx := context.Background()

	if err := s.Store.Handoffs().DeleteExpiredHandoffs(ctx, time.Now()); err != nil {
		s.Logger.Error("failed to delete expired handoff records", "error", err)
	}

	removed := s.Memo.SweepStale()
	s.Logger.Debug("housekeeping sweep completed", "stale_memo_entries", removed)
}
