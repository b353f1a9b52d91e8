package models

// DefaultCustomers is the customer count assumed when neither the caller nor
// the configuration supplies one.
const DefaultCustomers = 2

// FinancialAggregates holds the totals derived from one uploaded statement.
type FinancialAggregates struct {
	TotalDeposits    float64 `json:"totalDeposits"`
	TotalWithdrawals float64 `json:"totalWithdrawals"`
	TotalBalance     float64 `json:"totalBalance"`
	TransactionCount int     `json:"transactionCount"`
	CustomerCount    int     `json:"customerCount"`
}

// NetFlow returns deposits minus withdrawals.
func (a FinancialAggregates) NetFlow() float64 {
	return a.TotalDeposits - a.TotalWithdrawals
}

// Tier is the risk bucket derived from a composite score. A is best.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Metrics are the four sub-scores, each on a 0-10000 scale.
type Metrics struct {
	Growth        float64 `json:"growth"`
	Revenue       float64 `json:"revenue"`
	Concentration float64 `json:"concentration"`
	Stability     float64 `json:"stability"`
}

// BondMetrics are the integer g/r/c/s arguments of the bond-creation call.
type BondMetrics struct {
	G int64 `json:"g"`
	R int64 `json:"r"`
	C int64 `json:"c"`
	S int64 `json:"s"`
}

// Floor truncates every metric to an integer.
func (m Metrics) Floor() BondMetrics {
	return BondMetrics{
		G: int64(m.Growth),
		R: int64(m.Revenue),
		C: int64(m.Concentration),
		S: int64(m.Stability),
	}
}

// ScoreResult is the output of one scoring pass.
type ScoreResult struct {
	Metrics        Metrics `json:"metrics"`
	CompositeScore float64 `json:"score"`
	Tier           Tier    `json:"tier"`
	APY            string  `json:"apy"`
	MaxLoan        float64 `json:"maxLoan"`
	MonthlyRevenue float64 `json:"mrr"` // monthly revenue proxy
}

// ReasonCode identifies one failed eligibility criterion.
type ReasonCode string

const (
	ReasonScoreTooLow  ReasonCode = "SCORE_TOO_LOW"
	ReasonLowBalance   ReasonCode = "BALANCE_TOO_LOW"
	ReasonLowRevenue   ReasonCode = "REVENUE_TOO_LOW"
	ReasonNoDeposits   ReasonCode = "NO_DEPOSITS"
	ReasonLoanTooSmall ReasonCode = "LOAN_TOO_SMALL"
)

// Reason is a single rejection reason rendered to the user.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

// Eligibility is the outcome of the bond-minting gate.
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Reasons  []Reason `json:"reasons"`
}

// TraceLine captures what the extractor did with each input line.
type TraceLine struct {
	LineNum int       `json:"lineNum"`
	Text    string    `json:"text"`
	Result  string    `json:"result"` // "header", "deposit", "withdrawal", "balance", "skipped"
	Amounts []float64 `json:"amounts,omitempty"`
}
