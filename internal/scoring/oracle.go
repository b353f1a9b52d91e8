package scoring

import (
	"math"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

const maxOracleScore = 0.99

var oracleAPY = map[models.Tier]string{
	models.TierA: "8%",
	models.TierB: "10%",
	models.TierC: "12%",
	models.TierD: "15%",
}

// ScoreOracle scores a business from verified revenue-oracle state: monthly
// revenue in currency units and a customer count. All four metrics carry
// the same value since the oracle exposes no breakdown.
func ScoreOracle(mrr float64, customers int) models.ScoreResult {
	if math.IsNaN(mrr) || math.IsInf(mrr, 0) || mrr < 0 {
		mrr = 0
	}
	if customers < 0 {
		customers = 0
	}

	raw := float64(customers)*10/1000 + mrr/100000
	score := round2(clamp(raw, 0, maxOracleScore))
	tier := oracleTier(score)
	base := math.Floor(score * metricScale)

	return models.ScoreResult{
		Metrics: models.Metrics{
			Growth:        base,
			Revenue:       base,
			Concentration: base,
			Stability:     base,
		},
		CompositeScore: score,
		Tier:           tier,
		APY:            oracleAPY[tier],
		MaxLoan:        mrr * loanMultiple,
		MonthlyRevenue: mrr,
	}
}

// oracleTier uses inclusive thresholds and falls through to D.
func oracleTier(score float64) models.Tier {
	switch {
	case score >= 0.8:
		return models.TierA
	case score >= 0.6:
		return models.TierB
	case score >= 0.4:
		return models.TierC
	default:
		return models.TierD
	}
}
