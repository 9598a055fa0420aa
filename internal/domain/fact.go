package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidRef        = errors.New("fact reference must be category/key")
	ErrInvalidTTL        = errors.New("ttl must be an integer followed by s, m, h, d or w")
	ErrInvalidScope      = errors.New("invalid scope")
	ErrInvalidTier       = errors.New("invalid tier")
	ErrInvalidSourceType = errors.New("invalid source_type")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	ErrCategoryEmpty     = errors.New("category is required")
	ErrKeyEmpty          = errors.New("key is required")
	ErrValueEmpty        = errors.New("value is required")
	ErrInvalidOrder      = errors.New("order must be key or recent")
)

type Scope string

const (
	ScopeGlobal       Scope = "global"
	ScopeProject      Scope = "project"
	ScopeConversation Scope = "conversation"
)

func ValidScope(s string) bool {
	switch Scope(s) {
	case ScopeGlobal, ScopeProject, ScopeConversation:
		return true
	}
	return false
}

type SourceType string

const (
	SourceManual       SourceType = "manual"
	SourceInferred     SourceType = "inferred"
	SourceUserSaid     SourceType = "user_said"
	SourceToolOutput   SourceType = "tool_output"
	SourceConsolidated SourceType = "consolidated"
)

func ValidSourceType(s string) bool {
	switch SourceType(s) {
	case SourceManual, SourceInferred, SourceUserSaid, SourceToolOutput, SourceConsolidated:
		return true
	}
	return false
}

// Fact is a (category, key) -> value assertion with provenance.
type Fact struct {
	ID           uuid.UUID  `json:"id"`
	Category     string     `json:"category"`
	Key          string     `json:"key"`
	Value        string     `json:"value"`
	Source       string     `json:"source,omitempty"`
	Confidence   float64    `json:"confidence"`
	Scope        Scope      `json:"scope"`
	Tier         Tier       `json:"tier"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	LastVerified *time.Time `json:"last_verified,omitempty"`
	SourceType   SourceType `json:"source_type"`
	AccessCount  int        `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	Created      time.Time  `json:"created"`
	Updated      time.Time  `json:"updated"`
}

// Ref returns the fact's external reference.
func (f *Fact) Ref() string {
	return f.Category + "/" + f.Key
}

// ApplyDefaults fills zero-valued enum fields.
func (f *Fact) ApplyDefaults() {
	if f.Scope == "" {
		f.Scope = ScopeGlobal
	}
	if f.Tier == "" {
		f.Tier = TierLongTerm
	}
	if f.SourceType == "" {
		f.SourceType = SourceManual
	}
}

// Validate checks a fact before any mutation touches storage.
func (f *Fact) Validate() error {
	if strings.TrimSpace(f.Category) == "" {
		return ErrCategoryEmpty
	}
	if strings.TrimSpace(f.Key) == "" {
		return ErrKeyEmpty
	}
	if f.Value == "" {
		return ErrValueEmpty
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return ErrInvalidConfidence
	}
	if !ValidScope(string(f.Scope)) {
		return fmt.Errorf("%w: %q", ErrInvalidScope, f.Scope)
	}
	if !ValidTier(string(f.Tier)) {
		return fmt.Errorf("%w: %q", ErrInvalidTier, f.Tier)
	}
	if !ValidSourceType(string(f.SourceType)) {
		return fmt.Errorf("%w: %q", ErrInvalidSourceType, f.SourceType)
	}
	return nil
}

// ExtractedFact is a candidate produced by the extraction collaborator.
type ExtractedFact struct {
	Category   string     `json:"category"`
	Key        string     `json:"key"`
	Value      string     `json:"value"`
	Scope      Scope      `json:"scope"`
	Tier       Tier       `json:"tier"`
	SourceType SourceType `json:"source_type"`
	Confidence float64    `json:"confidence"`
	TTL        string     `json:"ttl,omitempty"`
}

// ToFact converts the candidate, resolving the TTL against now.
func (e ExtractedFact) ToFact(now time.Time) (*Fact, error) {
	f := &Fact{
		Category:   e.Category,
		Key:        e.Key,
		Value:      e.Value,
		Scope:      e.Scope,
		Tier:       e.Tier,
		SourceType: e.SourceType,
		Confidence: e.Confidence,
	}
	if f.SourceType == "" {
		f.SourceType = SourceInferred
	}
	f.ApplyDefaults()
	if e.TTL != "" {
		ttl, err := ParseTTL(e.TTL)
		if err != nil {
			return nil, err
		}
		exp := now.Add(ttl)
		f.ExpiresAt = &exp
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

type FactOrder string

const (
	OrderByKey    FactOrder = "key"
	OrderByRecent FactOrder = "recent"
)

func ValidFactOrder(o string) bool {
	switch FactOrder(o) {
	case "", OrderByKey, OrderByRecent:
		return true
	}
	return false
}

type FactFilter struct {
	Category string
	Scope    Scope
	Tier     Tier
	Order    FactOrder
	Limit    int
}

// ParseRef splits a "category/key" reference on its first slash. Keys may
// themselves contain slashes.
func ParseRef(ref string) (category, key string, err error) {
	category, key, ok := strings.Cut(ref, "/")
	if !ok || strings.TrimSpace(category) == "" || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return category, key, nil
}

var ttlPattern = regexp.MustCompile(`^(\d+)([smhdw])$`)

// ParseTTL parses durations like 30m, 24h, 7d or 2w.
func ParseTTL(s string) (time.Duration, error) {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, s)
	}
	var unit time.Duration
	switch m[2] {
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}
