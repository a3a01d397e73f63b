package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const DefaultHousekeepingInterval = 15 * time.Minute

// HousekeepingService periodically removes expired sessions and
// authorization codes. Used nonces are never removed: forgetting a jti would
// let it be replayed.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to
// DefaultHousekeepingInterval.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background until Stop.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup performs one pass. Each table is independent; one failing does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	sessions, err := s.Store.Sessions().DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}

	codes, err := s.Store.AuthorizationCodes().DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired authorization codes", "error", err)
	}

	s.Logger.Debug("housekeeping cleanup completed", "sessions", sessions, "authorization_codes", codes)
}
