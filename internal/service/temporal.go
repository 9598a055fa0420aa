package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Harshitk-cp/factstore/internal/domain"
	"go.uber.org/zap"
)

const DefaultTemporalLimit = 20

const day = 24 * time.Hour

// maxAgoDays bounds "<N> days/weeks ago" so the window stays within
// time.Duration range.
const maxAgoDays = 100_000

type Timeframe struct {
	Start       time.Time `json:"start_date"`
	End         time.Time `json:"end_date"`
	Description string    `json:"description"`
}

type TemporalResult struct {
	Phrase    string           `json:"phrase"`
	Found     bool             `json:"found"`
	Timeframe *Timeframe       `json:"timeframe,omitempty"`
	Facts     []domain.Fact    `json:"facts"`
	Events    []domain.Event   `json:"events"`
	Projects  []domain.Project `json:"projects"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var months = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sep":       time.September,
	"sept":      time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

const weekdayPattern = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`

var (
	lastWeekdayRe = regexp.MustCompile(`\blast ` + weekdayPattern + `\b`)
	thisWeekdayRe = regexp.MustCompile(`\bthis ` + weekdayPattern + `\b`)
	lastWeekRe    = regexp.MustCompile(`\blast week\b`)
	thisWeekRe    = regexp.MustCompile(`\bthis week\b`)
	daysAgoRe     = regexp.MustCompile(`\b(\d+) days? ago\b`)
	weeksAgoRe    = regexp.MustCompile(`\b(\d+) weeks? ago\b`)
	yesterdayRe   = regexp.MustCompile(`\byesterday\b`)
	lastMonthRe   = regexp.MustCompile(`\blast month\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	monthDayRe    = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec) (\d{1,2})(?:st|nd|rd|th)?\b`)
)

// ParseTimeframe resolves a natural-language phrase to a [start, end) window.
// Patterns are tried in a fixed priority order and the first match wins.
// ok is false when no pattern matches.
func ParseTimeframe(phrase string, now time.Time) (Timeframe, bool) {
	p := strings.ToLower(strings.TrimSpace(phrase))
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m := lastWeekdayRe.FindStringSubmatch(p); m != nil {
		target := weekdays[m[1]]
		back := (int(now.Weekday()) - int(target) + 7) % 7
		if back == 0 {
			back = 7
		}
		start := midnight.AddDate(0, 0, -back)
		return Timeframe{start, start.AddDate(0, 0, 1), "last " + m[1]}, true
	}

	if m := thisWeekdayRe.FindStringSubmatch(p); m != nil {
		target := weekdays[m[1]]
		start := weekStart(midnight).AddDate(0, 0, (int(target)+6)%7)
		return Timeframe{start, start.AddDate(0, 0, 1), "this " + m[1]}, true
	}

	if lastWeekRe.MatchString(p) {
		return Timeframe{now.Add(-7 * day), now, "last 7 days"}, true
	}

	if thisWeekRe.MatchString(p) {
		return Timeframe{weekStart(midnight), now, "this week"}, true
	}

	if m := daysAgoRe.FindStringSubmatch(p); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= maxAgoDays {
			d := time.Duration(n) * day
			return Timeframe{now.Add(-d - day), now.Add(-d + day), fmt.Sprintf("around %d days ago", n)}, true
		}
	}

	if m := weeksAgoRe.FindStringSubmatch(p); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n <= maxAgoDays/7 {
			w := time.Duration(n) * 7 * day
			return Timeframe{now.Add(-w - 7*day), now.Add(-w + 7*day), fmt.Sprintf("around %d weeks ago", n)}, true
		}
	}

	if yesterdayRe.MatchString(p) {
		return Timeframe{now.Add(-day), now, "yesterday"}, true
	}

	if lastMonthRe.MatchString(p) {
		return Timeframe{now.Add(-30 * day), now, "last 30 days"}, true
	}

	if m := isoDateRe.FindStringSubmatch(p); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		dayOfMonth, _ := strconv.Atoi(m[3])
		if start, ok := calendarDay(year, time.Month(month), dayOfMonth, now.Location()); ok {
			return Timeframe{start, start.AddDate(0, 0, 1), start.Format("2006-01-02")}, true
		}
	}

	if m := monthDayRe.FindStringSubmatch(p); m != nil {
		dayOfMonth, _ := strconv.Atoi(m[2])
		start, ok := calendarDay(now.Year(), months[m[1]], dayOfMonth, now.Location())
		if ok && start.After(now) {
			start, ok = calendarDay(now.Year()-1, months[m[1]], dayOfMonth, now.Location())
		}
		if ok {
			return Timeframe{start, start.AddDate(0, 0, 1), start.Format("January 2, 2006")}, true
		}
	}

	return Timeframe{}, false
}

// weekStart returns the Monday on or before midnight.
func weekStart(midnight time.Time) time.Time {
	return midnight.AddDate(0, 0, -((int(midnight.Weekday()) + 6) % 7))
}

// calendarDay rejects dates time.Date would normalize, such as February 30.
func calendarDay(year int, month time.Month, d int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, d, 0, 0, 0, 0, loc)
	if t.Month() != month || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// TemporalService answers "what happened <phrase>" over facts, log events
// and project activity.
type TemporalService struct {
	facts    domain.FactStore
	activity domain.ActivityStore
	clock    domain.Clock
	logger   *zap.Logger
}

func NewTemporalService(fs domain.FactStore, as domain.ActivityStore, clock domain.Clock, logger *zap.Logger) *TemporalService {
	if clock == nil {
		clock = domain.SystemClock
	}
	return &TemporalService{facts: fs, activity: as, clock: clock, logger: logger}
}

// Query splits limit between facts (half), events (a quarter) and projects
// (the rest). An unrecognized phrase yields an empty result, not an error.
func (s *TemporalService) Query(ctx context.Context, phrase string, limit int) (*TemporalResult, error) {
	if limit <= 0 {
		limit = DefaultTemporalLimit
	}
	result := &TemporalResult{
		Phrase:   phrase,
		Facts:    []domain.Fact{},
		Events:   []domain.Event{},
		Projects: []domain.Project{},
	}

	tf, ok := ParseTimeframe(phrase, s.clock.Now())
	if !ok {
		s.logger.Debug("no timeframe in phrase", zap.String("phrase", phrase))
		return result, nil
	}
	result.Found = true
	result.Timeframe = &tf

	factLimit := limit / 2
	eventLimit := limit / 4
	projectLimit := limit - factLimit - eventLimit

	if factLimit > 0 {
		facts, err := s.facts.ListUpdatedBetween(ctx, tf.Start, tf.End, factLimit)
		if err != nil {
			return nil, fmt.Errorf("facts in range: %w", err)
		}
		result.Facts = append(result.Facts, facts...)
	}
	if eventLimit > 0 {
		events, err := s.activity.ListEventsBetween(ctx, tf.Start, tf.End, eventLimit)
		if err != nil {
			return nil, fmt.Errorf("events in range: %w", err)
		}
		result.Events = append(result.Events, events...)
	}
	if projectLimit > 0 {
		projects, err := s.activity.ListProjectsActiveBetween(ctx, tf.Start, tf.End, projectLimit)
		if err != nil {
			return nil, fmt.Errorf("projects in range: %w", err)
		}
		result.Projects = append(result.Projects, projects...)
	}
	return result, nil
}
