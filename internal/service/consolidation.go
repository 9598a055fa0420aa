package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultConsolidationInterval = 6 * time.Hour

	DefaultSimilarityThreshold = 0.8

	mergeSeparator      = " | "
	maxMergedValueLen   = 500
	compressThreshold   = 200
	compressTruncateLen = 197
	ellipsis            = "..."

	ledgerSourceConsolidation = "consolidation"
)

var ErrInvalidThreshold = errors.New("similarity_threshold must be in (0, 1]")

var fillerWords = map[string]bool{
	"actually":    true,
	"basically":   true,
	"certainly":   true,
	"clearly":     true,
	"definitely":  true,
	"essentially": true,
	"honestly":    true,
	"just":        true,
	"literally":   true,
	"obviously":   true,
	"quite":       true,
	"really":      true,
	"simply":      true,
	"somewhat":    true,
	"totally":     true,
	"very":        true,
}

type ConsolidationOptions struct {
	DryRun              bool    `json:"dry_run" yaml:"dry_run"`
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	CompressLong        bool    `json:"compress_long" yaml:"compress_long"`
	AutoPrioritize      bool    `json:"auto_prioritize" yaml:"auto_prioritize"`
}

func DefaultConsolidationOptions() ConsolidationOptions {
	return ConsolidationOptions{SimilarityThreshold: DefaultSimilarityThreshold}
}

type MergeGroup struct {
	Category    string      `json:"category"`
	Key         string      `json:"key"`
	SourceIDs   []uuid.UUID `json:"source_ids"`
	SourceKeys  []string    `json:"source_keys"`
	MergedID    uuid.UUID   `json:"merged_id"`
	MergedValue string      `json:"merged_value"`
	Confidence  float64     `json:"confidence"`
	BytesSaved  int         `json:"bytes_saved"`
}

type CompressionChange struct {
	FactID    uuid.UUID `json:"fact_id"`
	Ref       string    `json:"ref"`
	BeforeLen int       `json:"before_len"`
	AfterLen  int       `json:"after_len"`
	Value     string    `json:"value"`
}

type PriorityChange struct {
	FactID      uuid.UUID   `json:"fact_id"`
	Ref         string      `json:"ref"`
	AccessCount int         `json:"access_count"`
	From        domain.Tier `json:"from"`
	To          domain.Tier `json:"to"`
}

type ConsolidationResult struct {
	DryRun       bool                `json:"dry_run"`
	FactsScanned int                 `json:"facts_scanned"`
	Groups       []MergeGroup        `json:"groups"`
	FactsMerged  int                 `json:"facts_merged"`
	BytesSaved   int                 `json:"bytes_saved"`
	Compressed   []CompressionChange `json:"compressed"`
	Prioritized  []PriorityChange    `json:"prioritized"`
}

// ConsolidationService merges near-duplicate facts and optionally compresses
// long values and promotes frequently accessed facts.
type ConsolidationService struct {
	factStore domain.FactStore
	logger    *zap.Logger

	// Background worker fields
	options  ConsolidationOptions
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewConsolidationService(fs domain.FactStore, logger *zap.Logger) *ConsolidationService {
	return &ConsolidationService{
		factStore: fs,
		logger:    logger,
		options:   DefaultConsolidationOptions(),
		interval:  defaultConsolidationInterval,
	}
}

// SetInterval sets the consolidation interval.
func (s *ConsolidationService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

// SetOptions sets the options used by the background worker.
func (s *ConsolidationService) SetOptions(opts ConsolidationOptions) {
	opts.DryRun = false
	s.options = opts
}

// Start begins the background consolidation worker.
func (s *ConsolidationService) Start() {
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

		s.logger.Info("consolidation worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
				if _, err := s.Consolidate(ctx, s.options); err != nil {
					s.logger.Error("consolidation run failed", zap.Error(err))
				}
				cancel()
			case <-stop:
				s.logger.Info("consolidation worker stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the consolidation worker.
func (s *ConsolidationService) Stop() {
	s.mu.Lock()
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Consolidate clusters facts newest-first and merges each cluster into one
// fact. Each merge commits on its own; on failure the result so far is
// returned along with the error. AutoPrioritize only promotes: a fact whose
// tier already ranks at or above its access-count tier is left alone.
func (s *ConsolidationService) Consolidate(ctx context.Context, opts ConsolidationOptions) (*ConsolidationResult, error) {
	if opts.SimilarityThreshold == 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.SimilarityThreshold < 0 || opts.SimilarityThreshold > 1 {
		return nil, ErrInvalidThreshold
	}

	facts, err := s.factStore.List(ctx, domain.FactFilter{Order: domain.OrderByRecent})
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}

	result := &ConsolidationResult{
		DryRun:       opts.DryRun,
		FactsScanned: len(facts),
		Groups:       []MergeGroup{},
		Compressed:   []CompressionChange{},
		Prioritized:  []PriorityChange{},
	}

	groups := ClusterFacts(facts, opts.SimilarityThreshold)
	mergedAway := make(map[uuid.UUID]bool)
	var view []domain.Fact

	for _, group := range groups {
		merged, summary := mergeGroup(group)
		if !opts.DryRun {
			if err := s.factStore.Merge(ctx, summary.SourceIDs, merged); err != nil {
				return result, fmt.Errorf("merge %s/%s: %w", merged.Category, merged.Key, mapStoreErr(err))
			}
			summary.MergedID = merged.ID
		}
		for _, id := range summary.SourceIDs {
			mergedAway[id] = true
		}
		result.Groups = append(result.Groups, summary)
		result.FactsMerged += len(summary.SourceIDs)
		result.BytesSaved += summary.BytesSaved
		view = append(view, *merged)
	}
	for _, f := range facts {
		if !mergedAway[f.ID] {
			view = append(view, f)
		}
	}

	if opts.CompressLong {
		for i := range view {
			f := &view[i]
			compressed, ok := compressValue(f.Value)
			if !ok {
				continue
			}
			if !opts.DryRun {
				if err := s.factStore.UpdateValue(ctx, f.ID, compressed, ledgerSourceConsolidation); err != nil {
					return result, fmt.Errorf("compress %s: %w", f.Ref(), mapStoreErr(err))
				}
			}
			result.Compressed = append(result.Compressed, CompressionChange{
				FactID:    f.ID,
				Ref:       f.Ref(),
				BeforeLen: runeLen(f.Value),
				AfterLen:  runeLen(compressed),
				Value:     compressed,
			})
			f.Value = compressed
		}
	}

	if opts.AutoPrioritize {
		for i := range view {
			f := &view[i]
			if f.AccessCount <= 0 {
				continue
			}
			target, ok := domain.TierForAccessCount(f.AccessCount)
			if !ok || target.Rank() <= f.Tier.Rank() {
				continue
			}
			if !opts.DryRun {
				if err := s.factStore.UpdateTier(ctx, f.ID, target); err != nil {
					return result, fmt.Errorf("prioritize %s: %w", f.Ref(), mapStoreErr(err))
				}
			}
			result.Prioritized = append(result.Prioritized, PriorityChange{
				FactID:      f.ID,
				Ref:         f.Ref(),
				AccessCount: f.AccessCount,
				From:        f.Tier,
				To:          target,
			})
			f.Tier = target
		}
	}

	if len(result.Groups) > 0 || len(result.Compressed) > 0 || len(result.Prioritized) > 0 {
		s.logger.Info("consolidation complete",
			zap.Bool("dry_run", opts.DryRun),
			zap.Int("groups", len(result.Groups)),
			zap.Int("facts_merged", result.FactsMerged),
			zap.Int("bytes_saved", result.BytesSaved),
			zap.Int("compressed", len(result.Compressed)),
			zap.Int("prioritized", len(result.Prioritized)))
	}
	return result, nil
}

// mergeGroup builds the replacement fact for a cluster. The most recently
// updated member supplies identity and retention fields.
func mergeGroup(group []domain.Fact) (*domain.Fact, MergeGroup) {
	base := group[0]
	for _, f := range group[1:] {
		if f.Updated.After(base.Updated) {
			base = f
		}
	}

	var (
		values       []string
		seen         = make(map[string]bool)
		confidence   float64
		accessCount  int
		lastAccessed *time.Time
		sourceBytes  int
		summary      = MergeGroup{Category: base.Category, Key: base.Key}
	)
	for _, f := range group {
		if !seen[f.Value] {
			seen[f.Value] = true
			values = append(values, f.Value)
		}
		confidence = max(confidence, f.Confidence)
		accessCount += f.AccessCount
		if f.LastAccessed != nil && (lastAccessed == nil || f.LastAccessed.After(*lastAccessed)) {
			t := *f.LastAccessed
			lastAccessed = &t
		}
		sourceBytes += len(f.Value)
		summary.SourceIDs = append(summary.SourceIDs, f.ID)
		summary.SourceKeys = append(summary.SourceKeys, f.Key)
	}

	value := strings.Join(values, mergeSeparator)
	if runeLen(value) > maxMergedValueLen {
		value = truncateRunes(value, maxMergedValueLen-len(ellipsis)) + ellipsis
	}

	merged := &domain.Fact{
		Category:     base.Category,
		Key:          base.Key,
		Value:        value,
		Source:       base.Source,
		Confidence:   confidence,
		Scope:        base.Scope,
		Tier:         base.Tier,
		ExpiresAt:    base.ExpiresAt,
		LastVerified: base.LastVerified,
		SourceType:   domain.SourceConsolidated,
		AccessCount:  accessCount,
		LastAccessed: lastAccessed,
		Created:      base.Created,
		Updated:      base.Updated,
	}

	summary.MergedValue = value
	summary.Confidence = confidence
	summary.BytesSaved = sourceBytes - len(value)
	return merged, summary
}

// compressValue shortens values over the compression threshold. ok is false
// when the value is short enough already or nothing shorter could be produced.
func compressValue(v string) (string, bool) {
	if runeLen(v) <= compressThreshold {
		return v, false
	}

	words := strings.Fields(v)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if fillerWords[strings.ToLower(strings.Trim(w, ",.;:!?"))] {
			continue
		}
		kept = append(kept, w)
	}
	out := strings.Join(kept, " ")

	if runeLen(out) > compressThreshold {
		if end := firstSentenceEnd(out); end > 0 && runeLen(out[:end]) <= compressThreshold {
			out = out[:end]
		} else {
			out = truncateRunes(out, compressTruncateLen) + ellipsis
		}
	}

	if runeLen(out) < runeLen(v) {
		return out, true
	}
	return v, false
}

// firstSentenceEnd returns the byte offset just past the first sentence
// terminator that is followed by whitespace, or 0 if there is none.
func firstSentenceEnd(s string) int {
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' {
				return i + 1
			}
		}
	}
	return 0
}
