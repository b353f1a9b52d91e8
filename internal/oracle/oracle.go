// Package oracle builds the payloads handed to the on-chain revenue oracle
// and bond factory, and publishes oracle updates.
package oracle

import (
	"fmt"
	"time"

	"github.com/insightdelivered/revenue-scorer/internal/models"
)

const (
	// DefaultChurn is reported as churn in basis points; statements carry no
	// churn signal.
	DefaultChurn = 200

	// DefaultPrincipal is the bond principal, in dollars, requested when the
	// caller does not choose one.
	DefaultPrincipal = 3000.0
)

// Update is the revenue-oracle state for one business.
type Update struct {
	Business  string      `json:"business"`
	MRR       int64       `json:"mrr"` // USDC base units
	Customers int         `json:"customers"`
	Churn     int         `json:"churn"`
	Score     float64     `json:"score"`
	Tier      models.Tier `json:"tier"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewUpdate builds the oracle update for a scored statement. customers <= 0
// selects models.DefaultCustomers.
func NewUpdate(business string, score models.ScoreResult, customers int) (Update, error) {
	if customers <= 0 {
		customers = models.DefaultCustomers
	}
	mrr, err := ToBaseUnits(score.MonthlyRevenue)
	if err != nil {
		return Update{}, fmt.Errorf("mrr: %w", err)
	}
	return Update{
		Business:  business,
		MRR:       mrr,
		Customers: customers,
		Churn:     DefaultChurn,
		Score:     score.CompositeScore,
		Tier:      score.Tier,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Validate checks the update can be submitted.
func (u Update) Validate() error {
	if !IsAddress(u.Business) {
		return fmt.Errorf("invalid business address %q", u.Business)
	}
	if u.MRR <= 0 {
		return fmt.Errorf("mrr must be positive, got %d", u.MRR)
	}
	return nil
}

// BondRequest holds the arguments of the bond-creation call.
type BondRequest struct {
	Business  string             `json:"business"`
	Principal int64              `json:"principal"` // USDC base units
	Metrics   models.BondMetrics `json:"metrics"`
	APY       string             `json:"apy"`
}

// NewBondRequest builds a bond request from a score. A non-positive principal
// selects DefaultPrincipal. The principal is capped at the score's MaxLoan.
func NewBondRequest(business string, score models.ScoreResult, principal float64) (BondRequest, error) {
	if principal <= 0 {
		principal = DefaultPrincipal
	}
	if score.MaxLoan > 0 && principal > score.MaxLoan {
		principal = score.MaxLoan
	}
	units, err := ToBaseUnits(principal)
	if err != nil {
		return BondRequest{}, fmt.Errorf("principal: %w", err)
	}
	return BondRequest{
		Business:  business,
		Principal: units,
		Metrics:   score.Metrics.Floor(),
		APY:       score.APY,
	}, nil
}
