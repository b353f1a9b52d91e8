package scoring

import (
	"math"
	"math/rand"
	"testing"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		agg       models.FinancialAggregates
		wantScore float64
		wantTier  models.Tier
		wantAPY   string
		wantLoan  float64
	}{
		{
			name:      "csv statement",
			agg:       models.FinancialAggregates{TotalDeposits: 8000, TotalWithdrawals: 1000, TotalBalance: 7000, TransactionCount: 3},
			wantScore: 0.66,
			wantTier:  models.TierB,
			wantAPY:   "15%",
			wantLoan:  24000,
		},
		{
			name:      "strong profile",
			agg:       models.FinancialAggregates{TotalDeposits: 10000, TotalBalance: 10000, TransactionCount: 40},
			wantScore: 0.85,
			wantTier:  models.TierA,
			wantAPY:   "12%",
			wantLoan:  30000,
		},
		{
			name:      "exactly 0.8 is not tier A",
			agg:       models.FinancialAggregates{TotalDeposits: 10000, TotalBalance: 10000, TransactionCount: 20},
			wantScore: 0.8,
			wantTier:  models.TierB,
			wantAPY:   "15%",
			wantLoan:  30000,
		},
		{
			name:      "spent everything",
			agg:       models.FinancialAggregates{TotalDeposits: 1000.9, TotalWithdrawals: 2000, TransactionCount: 2},
			wantScore: 0.01,
			wantTier:  models.TierC,
			wantAPY:   "18%",
			wantLoan:  3002,
		},
		{
			name:     "no deposits",
			agg:      models.FinancialAggregates{},
			wantTier: models.TierC,
			wantAPY:  "18%",
		},
		{
			name:     "non-finite deposits",
			agg:      models.FinancialAggregates{TotalDeposits: math.Inf(1)},
			wantTier: models.TierC,
			wantAPY:  "18%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.agg)
			if got.CompositeScore != tt.wantScore {
				t.Errorf("score: got %v, want %v", got.CompositeScore, tt.wantScore)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("tier: got %q, want %q", got.Tier, tt.wantTier)
			}
			if got.APY != tt.wantAPY {
				t.Errorf("apy: got %q, want %q", got.APY, tt.wantAPY)
			}
			if got.MaxLoan != tt.wantLoan {
				t.Errorf("maxLoan: got %v, want %v", got.MaxLoan, tt.wantLoan)
			}
		})
	}
}

func TestScoreMetrics(t *testing.T) {
	got := Score(models.FinancialAggregates{TotalDeposits: 8000, TotalWithdrawals: 1000, TotalBalance: 7000, TransactionCount: 3})
	want := models.Metrics{Growth: 8750, Revenue: 8750, Concentration: 8750, Stability: 300}
	if got.Metrics != want {
		t.Errorf("metrics: got %+v, want %+v", got.Metrics, want)
	}
	if got.MonthlyRevenue != 8000 {
		t.Errorf("mrr: got %v, want 8000", got.MonthlyRevenue)
	}
	if floored := got.Metrics.Floor(); floored != (models.BondMetrics{G: 8750, R: 8750, C: 8750, S: 300}) {
		t.Errorf("floor: got %+v", floored)
	}
}

func TestScoreGrowthFollowsNetFlow(t *testing.T) {
	tests := []struct {
		name   string
		agg    models.FinancialAggregates
		growth float64
	}{
		{"half retained", models.FinancialAggregates{TotalDeposits: 4000, TotalWithdrawals: 2000, TotalBalance: 2000}, 5000},
		{"net outflow", models.FinancialAggregates{TotalDeposits: 1000, TotalWithdrawals: 1500, TotalBalance: 100}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.agg).Metrics.Growth; got != tt.growth {
				t.Errorf("growth: got %v, want %v (net flow %v)", got, tt.growth, tt.agg.NetFlow())
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		agg := models.FinancialAggregates{
			TotalDeposits:    rng.Float64() * 100000,
			TotalWithdrawals: rng.Float64() * 150000,
			TotalBalance:     rng.Float64()*200000 - 20000,
			TransactionCount: rng.Intn(300),
		}
		got := Score(agg)
		if got.CompositeScore < 0 || got.CompositeScore > 1 {
			t.Fatalf("score out of range for %+v: %v", agg, got.CompositeScore)
		}
		for _, m := range []float64{got.Metrics.Growth, got.Metrics.Revenue, got.Metrics.Concentration, got.Metrics.Stability} {
			if m < 0 || m > 10000 {
				t.Fatalf("metric out of range for %+v: %+v", agg, got.Metrics)
			}
		}
	}
}

func TestScoreMonotonicInWithdrawals(t *testing.T) {
	base := models.FinancialAggregates{TotalDeposits: 20000, TotalBalance: 9000, TransactionCount: 25}
	prev := math.Inf(1)
	for w := 0.0; w <= 30000; w += 250 {
		agg := base
		agg.TotalWithdrawals = w
		got := Score(agg).CompositeScore
		if got > prev {
			t.Fatalf("score rose from %v to %v when withdrawals grew to %v", prev, got, w)
		}
		prev = got
	}
}

func TestScoreIdempotent(t *testing.T) {
	agg := models.FinancialAggregates{TotalDeposits: 1234.56, TotalWithdrawals: 789.01, TotalBalance: 445.55, TransactionCount: 7}
	if a, b := Score(agg), Score(agg); a != b {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, want float64
	}{
		{-1, 0},
		{0.5, 0.5},
		{2, 1},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := clamp(tt.v, 0, 1); got != tt.want {
			t.Errorf("clamp(%v): got %v, want %v", tt.v, got, tt.want)
		}
	}
}
