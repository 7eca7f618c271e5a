package sentiment

import "github.com/spacesedan/postsentiment/internal/models"

const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Label buckets a compound score. Both thresholds are exclusive, so ±0.05
// is neutral.
func Label(compound float64) models.SentimentLabel {
	switch {
	case compound > PositiveThreshold:
		return models.SentimentGood
	case compound < NegativeThreshold:
		return models.SentimentBad
	default:
		return models.SentimentNeutral
	}
}
