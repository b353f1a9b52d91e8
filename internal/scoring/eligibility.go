package scoring

import (
	"fmt"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

// Bond-minting thresholds.
const (
	MinScore          = 0.4
	MinBalance        = 1000.0 // balance must be strictly above this
	MinMonthlyRevenue = 500.0
	MinLoan           = 1000.0
)

// CheckEligibility evaluates the bond-minting gate. Every failed criterion
// is reported so the caller can render all of them at once.
func CheckEligibility(agg models.FinancialAggregates, score models.ScoreResult) models.Eligibility {
	reasons := []models.Reason{}

	if !(score.CompositeScore >= MinScore) {
		reasons = append(reasons, models.Reason{
			Code:    models.ReasonScoreTooLow,
			Message: fmt.Sprintf("Stability score too low (%.2f)", score.CompositeScore),
		})
	}
	if !(agg.TotalBalance > MinBalance) {
		reasons = append(reasons, models.Reason{
			Code:    models.ReasonLowBalance,
			Message: fmt.Sprintf("Ending balance must exceed $%.0f (got $%.2f)", MinBalance, agg.TotalBalance),
		})
	}
	if !(score.MonthlyRevenue >= MinMonthlyRevenue) {
		reasons = append(reasons, models.Reason{
			Code:    models.ReasonLowRevenue,
			Message: fmt.Sprintf("Monthly revenue too low ($%.0f)", score.MonthlyRevenue),
		})
	}
	if !(agg.TotalDeposits > 0) {
		reasons = append(reasons, models.Reason{
			Code:    models.ReasonNoDeposits,
			Message: "No significant deposits detected",
		})
	}
	if !(score.MaxLoan >= MinLoan) {
		reasons = append(reasons, models.Reason{
			Code:    models.ReasonLoanTooSmall,
			Message: fmt.Sprintf("Maximum loan below $%.0f (got $%.0f)", MinLoan, score.MaxLoan),
		})
	}

	return models.Eligibility{
		Eligible: len(reasons) == 0,
		Reasons:  reasons,
	}
}
