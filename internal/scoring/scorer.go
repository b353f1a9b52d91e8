// Package scoring maps financial aggregates to a stability score, a risk
// tier and loan terms.
//
// Two scoring paths exist. Score works from an uploaded statement and never
// assigns tier D; ScoreOracle works from verified oracle state and uses a
// four-tier table. They are deliberately kept apart until product decides
// which one is authoritative.
package scoring

import (
	"math"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

const (
	metricScale   = 10000.0
	loanMultiple  = 3.0
	stabilityStep = 100.0
)

// statementAPY is the yield offered per tier on the statement path.
var statementAPY = map[models.Tier]string{
	models.TierA: "12%",
	models.TierB: "15%",
	models.TierC: "18%",
}

// Score computes the statement-path score for a set of aggregates.
// Malformed aggregates (no deposits, negative or non-finite values) yield a
// zero score in tier C.
func Score(agg models.FinancialAggregates) models.ScoreResult {
	if !wellFormed(agg) {
		return models.ScoreResult{Tier: models.TierC, APY: statementAPY[models.TierC]}
	}

	d := agg.TotalDeposits
	w := agg.TotalWithdrawals
	b := agg.TotalBalance
	net := agg.NetFlow()

	m := models.Metrics{
		Growth:        clamp(safeDiv(net, d), 0, 1) * metricScale,
		Revenue:       clamp(1-safeDiv(w, d), 0, 1) * metricScale,
		Concentration: clamp(safeDiv(b, d), 0, 1) * metricScale,
		Stability:     clamp(float64(agg.TransactionCount)*stabilityStep, 0, metricScale),
	}

	score := round2((m.Growth + m.Revenue + m.Concentration + m.Stability) / (4 * metricScale))
	tier := statementTier(score)

	return models.ScoreResult{
		Metrics:        m,
		CompositeScore: score,
		Tier:           tier,
		APY:            statementAPY[tier],
		MaxLoan:        math.Floor(d * loanMultiple),
		MonthlyRevenue: math.Floor(d),
	}
}

// statementTier uses strict thresholds: exactly 0.8 is tier B.
func statementTier(score float64) models.Tier {
	switch {
	case score > 0.8:
		return models.TierA
	case score > 0.6:
		return models.TierB
	default:
		return models.TierC
	}
}

func wellFormed(agg models.FinancialAggregates) bool {
	for _, v := range []float64{agg.TotalDeposits, agg.TotalWithdrawals, agg.TotalBalance} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return agg.TotalDeposits > 0 && agg.TotalWithdrawals >= 0 && agg.TransactionCount >= 0
}

// safeDiv substitutes 1 for a zero denominator.
func safeDiv(n, d float64) float64 {
	if d == 0 {
		d = 1
	}
	return n / d
}

// clamp bounds v to [lo, hi]; NaN maps to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
