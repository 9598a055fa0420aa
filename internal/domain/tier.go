package domain

type Tier string

const (
	TierWorking   Tier = "working"
	TierLongTerm  Tier = "long-term"
	TierImportant Tier = "important"
	TierCritical  Tier = "critical"
	TierPermanent Tier = "permanent"
)

func ValidTier(t string) bool {
	switch Tier(t) {
	case TierWorking, TierLongTerm, TierImportant, TierCritical, TierPermanent:
		return true
	}
	return false
}

// Rank orders tiers by retention strength. Unknown tiers rank lowest.
func (t Tier) Rank() int {
	switch t {
	case TierWorking:
		return 1
	case TierLongTerm:
		return 2
	case TierImportant:
		return 3
	case TierCritical:
		return 4
	case TierPermanent:
		return 5
	}
	return 0
}

// DecayExempt reports whether the forgetting curve skips facts in this tier.
func (t Tier) DecayExempt() bool {
	return t == TierCritical || t == TierPermanent
}

// TierForAccessCount maps an access count to the tier auto-prioritization
// would assign. ok is false when the count earns no tier.
func TierForAccessCount(count int) (tier Tier, ok bool) {
	switch {
	case count >= 10:
		return TierCritical, true
	case count >= 5:
		return TierImportant, true
	case count >= 2:
		return TierLongTerm, true
	}
	return "", false
}
