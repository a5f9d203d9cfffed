package domain

// BloomLevel is a cognitive-complexity tag from Bloom's taxonomy.
// Propositions and takeaways draw from separate closed subsets.
type BloomLevel string

// Bloom levels used by this system.
const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
)

// String returns the string representation.
func (b BloomLevel) String() string {
	return string(b)
}

// IsPropositionLevel reports whether b is allowed on a proposition.
func (b BloomLevel) IsPropositionLevel() bool {
	switch b {
	case BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze:
		return true
	default:
		return false
	}
}

// IsTakeawayLevel reports whether b is allowed as a takeaway's dominant level.
func (b BloomLevel) IsTakeawayLevel() bool {
	return b == BloomAnalyze || b == BloomEvaluate
}

// PropositionBloomLevels returns the closed set for propositions, in taxonomy order.
func PropositionBloomLevels() []BloomLevel {
	return []BloomLevel{BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze}
}

// TakeawayBloomLevels returns the closed set for takeaways.
func TakeawayBloomLevels() []BloomLevel {
	return []BloomLevel{BloomAnalyze, BloomEvaluate}
}
