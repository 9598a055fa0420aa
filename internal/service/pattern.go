package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"go.uber.org/zap"
)

const (
	DefaultPatternDays        = 30
	DefaultPatternMinSessions = 3

	sessionEventWindow     = 2 * time.Hour
	maxPairThreshold       = 3
	dominantStyleSessions  = 10
	elevatedMistakeCount   = 5
	strongPatternThreshold = 3
)

type PatternOptions struct {
	Days        int `json:"days"`
	MinSessions int `json:"min_sessions"`
}

// Pattern links a session style to an event outcome seen around its sessions.
type Pattern struct {
	Trigger    string  `json:"trigger"`
	Outcome    string  `json:"outcome"`
	Frequency  int     `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

type FrequentEvent struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

type PatternReport struct {
	Days             int             `json:"days"`
	SessionsAnalyzed int             `json:"sessions_analyzed"`
	EventsAnalyzed   int             `json:"events_analyzed"`
	Patterns         []Pattern       `json:"patterns"`
	Frequent         []FrequentEvent `json:"frequent"`
	Insights         []string        `json:"insights"`
}

type PatternService struct {
	activity domain.ActivityStore
	clock    domain.Clock
	logger   *zap.Logger
}

func NewPatternService(as domain.ActivityStore, clock domain.Clock, logger *zap.Logger) *PatternService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &PatternService{activity: as, clock: clock, logger: logger}
}

// Analyze correlates session styles with the log events recorded within two
// hours of each session over the last opts.Days days.
func (s *PatternService) Analyze(ctx context.Context, opts PatternOptions) (*PatternReport, error) {
	if opts.Days <= 0 {
		opts.Days = DefaultPatternDays
	}
	if opts.MinSessions <= 0 {
		opts.MinSessions = DefaultPatternMinSessions
	}
	now := s.clock.Now()
	since := now.AddDate(0, 0, -opts.Days)

	sessions, err := s.activity.ListSessionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	events, err := s.activity.ListEventsBetween(ctx, since, now, 0)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	report := &PatternReport{
		Days:             opts.Days,
		SessionsAnalyzed: len(sessions),
		EventsAnalyzed:   len(events),
		Patterns:         []Pattern{},
		Frequent:         []FrequentEvent{},
		Insights:         []string{},
	}

	byStyle := make(map[string][]domain.Session)
	for _, sess := range sessions {
		byStyle[sess.Style] = append(byStyle[sess.Style], sess)
	}

	pairThreshold := min(maxPairThreshold, opts.MinSessions)
	for style, styleSessions := range byStyle {
		if len(styleSessions) < opts.MinSessions {
			continue
		}
		tally := make(map[string]int)
		for _, sess := range styleSessions {
			for _, e := range events {
				if absDuration(e.Created.Sub(sess.Started)) <= sessionEventWindow {
					tally[e.EventType+":"+e.Category]++
				}
			}
		}
		for outcome, count := range tally {
			if count < pairThreshold {
				continue
			}
			report.Patterns = append(report.Patterns, Pattern{
				Trigger:    style,
				Outcome:    outcome,
				Frequency:  count,
				Confidence: min(1, float64(count)/float64(len(styleSessions))),
			})
		}
	}
	sort.Slice(report.Patterns, func(i, j int) bool {
		a, b := report.Patterns[i], report.Patterns[j]
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if a.Trigger != b.Trigger {
			return a.Trigger < b.Trigger
		}
		return a.Outcome < b.Outcome
	})

	byType := make(map[string]int)
	mistakes := 0
	for _, e := range events {
		byType[e.EventType]++
		if e.EventType == domain.EventTypeMistake {
			mistakes++
		}
	}
	for eventType, count := range byType {
		if count >= opts.MinSessions {
			report.Frequent = append(report.Frequent, FrequentEvent{EventType: eventType, Count: count})
		}
	}
	sort.Slice(report.Frequent, func(i, j int) bool {
		a, b := report.Frequent[i], report.Frequent[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.EventType < b.EventType
	})

	if len(sessions) > dominantStyleSessions {
		style, count := dominantStyle(byStyle)
		report.Insights = append(report.Insights,
			fmt.Sprintf("Dominant session style is %q (%d of %d sessions)", style, count, len(sessions)))
	}
	if mistakes > elevatedMistakeCount {
		report.Insights = append(report.Insights,
			fmt.Sprintf("Elevated mistake rate: %d mistakes in the last %d days", mistakes, opts.Days))
	}
	if n := len(report.Patterns); n > strongPatternThreshold {
		report.Insights = append(report.Insights,
			fmt.Sprintf("Strong patterns: %d recurring patterns found", n))
	}

	return report, nil
}

func dominantStyle(byStyle map[string][]domain.Session) (string, int) {
	var best string
	bestCount := 0
	for style, sessions := range byStyle {
		if len(sessions) > bestCount || (len(sessions) == bestCount && style < best) {
			best, bestCount = style, len(sessions)
		}
	}
	return best, bestCount
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
