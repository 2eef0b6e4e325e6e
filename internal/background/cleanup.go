package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/formgate/internal/session"
)

// CleanupManager periodically removes expired sessions from stores that do
// not expire entries on their own.
type CleanupManager struct {
	sweeper  session.Sweeper
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// DefaultInterval applies when the configured interval is not positive.
const DefaultInterval = 5 * time.Minute

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(sweeper session.Sweeper, logger *slog.Logger, interval time.Duration) *CleanupManager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &CleanupManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a sweep immediately and then on every tick until Stop is called
// or ctx is done.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := cm.sweeper.DeleteExpired(cleanupCtx, cm.now())
	if err != nil {
		cm.logger.Error("failed to remove expired sessions", slog.Any("error", err))
		return
	}

	if removed > 0 {
		cm.logger.Info("expired session cleanup completed", slog.Int("sessions_removed", removed))
	}
}

// Stop signals the cleanup manager to stop. It is safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
