package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultForgettingInterval = 24 * time.Hour

	DefaultDecayRate      = 0.05
	DefaultPruneThreshold = 0.1
	DefaultGraceDays      = 30
)

var ErrInvalidForgettingOptions = errors.New("invalid forgetting options")

type ForgettingOptions struct {
	DryRun         bool    `json:"dry_run" yaml:"dry_run"`
	DecayRate      float64 `json:"decay_rate" yaml:"decay_rate"`
	PruneThreshold float64 `json:"prune_threshold" yaml:"prune_threshold"`
	GraceDays      float64 `json:"grace_days" yaml:"grace_days"`
}

func DefaultForgettingOptions() ForgettingOptions {
	return ForgettingOptions{
		DecayRate:      DefaultDecayRate,
		PruneThreshold: DefaultPruneThreshold,
		GraceDays:      DefaultGraceDays,
	}
}

func (o ForgettingOptions) validate() error {
	switch {
	case o.DecayRate < 0 || o.DecayRate >= 1:
		return fmt.Errorf("%w: decay_rate must be in [0, 1)", ErrInvalidForgettingOptions)
	case o.PruneThreshold < 0 || o.PruneThreshold > 1:
		return fmt.Errorf("%w: prune_threshold must be in [0, 1]", ErrInvalidForgettingOptions)
	case o.GraceDays < 0:
		return fmt.Errorf("%w: grace_days must not be negative", ErrInvalidForgettingOptions)
	}
	return nil
}

type DecayChange struct {
	FactID          uuid.UUID `json:"fact_id"`
	Ref             string    `json:"ref"`
	DaysSinceAccess float64   `json:"days_since_access"`
	OldConfidence   float64   `json:"old_confidence"`
	NewConfidence   float64   `json:"new_confidence"`
	Archived        bool      `json:"archived"`
}

type ForgettingResult struct {
	DryRun                 bool          `json:"dry_run"`
	FactsScanned           int           `json:"facts_scanned"`
	Decayed                int           `json:"decayed"`
	Archived               int           `json:"archived"`
	AverageConfidenceDelta float64       `json:"average_confidence_delta"`
	Changes                []DecayChange `json:"changes"`
}

// ForgettingService applies exponential confidence decay to facts that have
// not been accessed for longer than the grace period, archiving those that
// fall below the prune threshold.
type ForgettingService struct {
	factStore domain.FactStore
	clock     domain.Clock
	logger    *zap.Logger

	options  ForgettingOptions
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewForgettingService(fs domain.FactStore, clock domain.Clock, logger *zap.Logger) *ForgettingService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &ForgettingService{
		factStore: fs,
		clock:     clock,
		logger:    logger,
		options:   DefaultForgettingOptions(),
		interval:  defaultForgettingInterval,
	}
}

func (s *ForgettingService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetOptions sets the options used by the background worker.
func (s *ForgettingService) SetOptions(opts ForgettingOptions) {
	opts.DryRun = false
	s.options = opts
}

func (s *ForgettingService) Start() {
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

		s.logger.Info("forgetting worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if _, err := s.Run(ctx, s.options); err != nil {
					s.logger.Error("forgetting run failed", zap.Error(err))
				}
				cancel()
			case <-stop:
				s.logger.Info("forgetting worker stopped")
				return
			}
		}
	}()
}

func (s *ForgettingService) Stop() {
	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// DecayedConfidence returns c * (1-rate)^(days-grace) clamped at 0, or c
// unchanged while days is within the grace period.
func DecayedConfidence(c, rate, days, grace float64) float64 {
	if days <= grace {
		return c
	}
	return math.Max(0, c*math.Pow(1-rate, days-grace))
}

// Run decays every non-exempt fact. Each fact's update or archive commits on
// its own; on failure the result so far is returned with the error.
func (s *ForgettingService) Run(ctx context.Context, opts ForgettingOptions) (*ForgettingResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now()

	facts, err := s.factStore.List(ctx, domain.FactFilter{Order: domain.OrderByKey})
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	result := &ForgettingResult{DryRun: opts.DryRun, Changes: []DecayChange{}}
	var deltaSum float64

	for _, f := range facts {
		if f.Tier.DecayExempt() {
			continue
		}
		result.FactsScanned++

		lastUse := f.Created
		if f.LastAccessed != nil && f.LastAccessed.After(lastUse) {
			lastUse = *f.LastAccessed
		}
		days := now.Sub(lastUse).Hours() / 24
		if days < opts.GraceDays {
			continue
		}

		newConf := DecayedConfidence(f.Confidence, opts.DecayRate, days, opts.GraceDays)
		decayed := newConf < f.Confidence
		archive := newConf < opts.PruneThreshold
		if !decayed && !archive {
			continue
		}

		if !opts.DryRun {
			if archive {
				err = s.factStore.Archive(ctx, &domain.ArchiveEntry{
					OriginalFactID:     f.ID,
					Category:           f.Category,
					Key:                f.Key,
					Value:              f.Value,
					OriginalConfidence: f.Confidence,
					FinalConfidence:    newConf,
					DaysUnused:         int(math.Round(days)),
					ArchivedDate:       now,
					Reason:             domain.ArchiveReasonConfidenceDecay,
				})
			} else {
				err = s.factStore.UpdateConfidence(ctx, f.ID, newConf)
			}
			if err != nil {
				result.finish(deltaSum)
				return result, fmt.Errorf("decay %s: %w", f.Ref(), mapStoreErr(err))
			}
		}

		if decayed {
			result.Decayed++
			deltaSum += f.Confidence - newConf
		}
		if archive {
			result.Archived++
		}
		result.Changes = append(result.Changes, DecayChange{
			FactID:          f.ID,
			Ref:             f.Ref(),
			DaysSinceAccess: days,
			OldConfidence:   f.Confidence,
			NewConfidence:   newConf,
			Archived:        archive,
		})
	}

	result.finish(deltaSum)
	if result.Decayed > 0 || result.Archived > 0 {
		s.logger.Info("forgetting curve applied",
			zap.Bool("dry_run", opts.DryRun),
			zap.Int("decayed", result.Decayed),
			zap.Int("archived", result.Archived),
			zap.Float64("average_confidence_delta", result.AverageConfidenceDelta))
	}
	return result, nil
}

func (r *ForgettingResult) finish(deltaSum float64) {
	if r.Decayed > 0 {
		r.AverageConfidenceDelta = deltaSum / float64(r.Decayed)
	}
}
