package scoring

import (
	"testing"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

func TestScoreOracle(t *testing.T) {
	tests := []struct {
		name       string
		mrr        float64
		customers  int
		wantScore  float64
		wantTier   models.Tier
		wantAPY    string
		wantMetric float64
	}{
		{"tier A", 50000, 40, 0.9, models.TierA, "8%", 9000},
		{"tier B", 40000, 25, 0.65, models.TierB, "10%", 6500},
		{"tier C boundary", 30000, 10, 0.4, models.TierC, "12%", 4000},
		{"tier D", 5000, 2, 0.07, models.TierD, "15%", 700},
		{"capped", 1000000, 500, 0.99, models.TierA, "8%", 9900},
		{"negative input", -100, -3, 0, models.TierD, "15%", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreOracle(tt.mrr, tt.customers)
			if got.CompositeScore != tt.wantScore {
				t.Errorf("score: got %v, want %v", got.CompositeScore, tt.wantScore)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("tier: got %q, want %q", got.Tier, tt.wantTier)
			}
			if got.APY != tt.wantAPY {
				t.Errorf("apy: got %q, want %q", got.APY, tt.wantAPY)
			}
			if got.Metrics.Growth != tt.wantMetric || got.Metrics.Stability != tt.wantMetric {
				t.Errorf("metrics: got %+v, want all %v", got.Metrics, tt.wantMetric)
			}
		})
	}
}

func TestScoreOracleLoan(t *testing.T) {
	got := ScoreOracle(12000, 5)
	if got.MaxLoan != 36000 {
		t.Errorf("maxLoan: got %v, want 36000", got.MaxLoan)
	}
	if got.MonthlyRevenue != 12000 {
		t.Errorf("mrr: got %v, want 12000", got.MonthlyRevenue)
	}
}

func TestScoringPathsDiverge(t *testing.T) {
	// Same score, different tables: the statement path never quotes 8%.
	statement := Score(models.FinancialAggregates{TotalDeposits: 10000, TotalBalance: 10000, TransactionCount: 40})
	oracle := ScoreOracle(50000, 35)
	if statement.CompositeScore != oracle.CompositeScore {
		t.Fatalf("scores differ: %v vs %v", statement.CompositeScore, oracle.CompositeScore)
	}
	if statement.APY == oracle.APY {
		t.Errorf("expected divergent APY tables, both gave %q", statement.APY)
	}
}
