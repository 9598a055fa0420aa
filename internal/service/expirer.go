package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"go.uber.org/zap"
)

const defaultExpirerInterval = 5 * time.Minute

// ExpirerService sweeps working-tier facts whose TTL has elapsed.
type ExpirerService struct {
	factStore domain.FactStore
	clock     domain.Clock
	logger    *zap.Logger

	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(fs domain.FactStore, clock domain.Clock, logger *zap.Logger) *ExpirerService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ExpirerService{
		factStore: fs,
		clock:     clock,
		logger:    logger,
		interval:  defaultExpirerInterval,
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	s.stopCh = stop

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("fact expirer started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := s.ExpireWorking(ctx); err != nil {
					s.logger.Error("failed to expire working facts", zap.Error(err))
				}
				cancel()
			case <-stop:
				s.logger.Info("fact expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// ExpireWorking deletes working facts with expires_at at or before now and
// returns how many were removed.
func (s *ExpirerService) ExpireWorking(ctx context.Context) (int64, error) {
	deleted, err := s.factStore.DeleteExpiredWorking(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("expired working facts", zap.Int64("count", deleted))
	}
	return deleted, nil
}
