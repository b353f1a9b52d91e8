package parser

import (
	"math"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

// extractText is the keyword heuristic used for PDFs and plain text.
//
// A line mentioning deposit/credit/cr routes every non-zero number on it to
// deposits; otherwise a line mentioning withdraw/debit/dr routes them to
// withdrawals. Lines mentioning "balance" also set the running balance to
// the last non-zero number they carry.
func extractText(lines []string, trace bool) (models.FinancialAggregates, []models.TraceLine) {
	var agg models.FinancialAggregates
	var traces []models.TraceLine

	for i, line := range lines {
		t := models.TraceLine{LineNum: i + 1, Text: line, Result: "skipped"}

		amounts := findAmounts(line)
		if len(amounts) == 0 {
			if trace {
				traces = append(traces, t)
			}
			continue
		}

		isDeposit := depositPattern.MatchString(line)
		isWithdrawal := !isDeposit && withdrawalPattern.MatchString(line)
		isBalance := balancePattern.MatchString(line)

		for _, v := range amounts {
			if v == 0 {
				continue
			}
			abs := math.Abs(v)
			switch {
			case isDeposit:
				agg.TotalDeposits += abs
				agg.TransactionCount++
				t.Result = "deposit"
				t.Amounts = append(t.Amounts, abs)
			case isWithdrawal:
				agg.TotalWithdrawals += abs
				agg.TransactionCount++
				t.Result = "withdrawal"
				t.Amounts = append(t.Amounts, abs)
			}
			if isBalance {
				agg.TotalBalance = abs
				if t.Result == "skipped" {
					t.Result = "balance"
				}
			}
		}

		if trace {
			traces = append(traces, t)
		}
	}

	// No balance line: estimate it from net flow.
	if agg.TotalBalance == 0 && agg.TotalDeposits > 0 {
		agg.TotalBalance = math.Max(0, agg.TotalDeposits-agg.TotalWithdrawals)
	}

	return agg, traces
}
