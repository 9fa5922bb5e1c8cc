// Package scoring composes the 0-1 sub-scores into display-scale
// numbers. It carries its own weighting, separate from the tier
// classifier's composite and the HTTP response score; the three
// weightings are independent on purpose.
package scoring

import "math"

// Breakdown holds every sub-score normalized onto the 0-10 scale.
type Breakdown struct {
	Readme     float64 `json:"readme"`
	Health     float64 `json:"health"`
	Activity   float64 `json:"activity"`
	Engagement float64 `json:"engagement"`
	Community  float64 `json:"community"`
}

const (
	weightReadme     = 0.15
	weightHealth     = 0.30
	weightActivity   = 0.30
	weightEngagement = 0.10
	weightCommunity  = 0.15
)

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// NormalizeToTen maps a 0-1 score onto the 0-10 display scale, clamping
// out-of-range input and rounding to two decimals.
func NormalizeToTen(v float64) float64 {
	return math.Round(clamp01(v)*10*100) / 100
}

// Overall combines the four sub-scores with a community signal, the
// clamped closed-issue ratio, into one 0-10 score plus its breakdown.
func Overall(readme, health, activity, engagement, closedIssueRatio float64) (float64, Breakdown) {
	community := clamp01(closedIssueRatio)

	composite := readme*weightReadme +
		health*weightHealth +
		activity*weightActivity +
		engagement*weightEngagement +
		community*weightCommunity

	return NormalizeToTen(composite), Breakdown{
		Readme:     NormalizeToTen(readme),
		Health:     NormalizeToTen(health),
		Activity:   NormalizeToTen(activity),
		Engagement: NormalizeToTen(engagement),
		Community:  NormalizeToTen(community),
	}
}
