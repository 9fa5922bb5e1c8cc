package analysis

// Level tiers a repository by how approachable it is for a new
// contributor, from well-documented starter projects to large
// fast-moving codebases.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"

	// LevelUnknown marks a result finalized before classification ran.
	LevelUnknown Level = "Unknown"
)

// Valid reports whether the level is one of the classified tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Tier composite weights. The HTTP layer's 0-10 overall score and the
// scoring package use different weightings on the same sub-scores; the
// three sets are independent on purpose and must not be unified.
const (
	tierWeightReadme     = 0.20
	tierWeightHealth     = 0.35
	tierWeightActivity   = 0.30
	tierWeightEngagement = 0.15
)

// Tier thresholds over the weighted composite.
const (
	beginnerCeiling     = 0.33
	intermediateCeiling = 0.66
)

// classifyComposite maps a composite score onto its tier. Total over
// [0, 1]: every composite lands in exactly one tier.
func classifyComposite(composite float64) Level {
	switch {
	case composite < beginnerCeiling:
		return LevelBeginner
	case composite < intermediateCeiling:
		return LevelIntermediate
	default:
		return LevelAdvanced
	}
}

var tierRecommendations = map[Level][]string{
	LevelBeginner: {
		"Start with README and Installation steps",
		"Try a small good-first-issue",
		"Run tests locally and read contribution guide",
	},
	LevelIntermediate: {
		"Review open PRs to understand project conventions",
		"Pick medium-complexity issues with clear repro",
		"Consider improving docs or tests",
	},
	LevelAdvanced: {
		"Propose architectural improvements or refactors",
		"Review and mentor on PRs",
		"Optimize CI/CD, performance, or reliability",
	},
}

// recommendationsFor returns the fixed guidance list for a tier. The
// returned slice is a copy; callers may keep it.
func recommendationsFor(level Level) []string {
	recs, ok := tierRecommendations[level]
	if !ok {
		return nil
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}
