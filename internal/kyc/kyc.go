// Package kyc manages business verification submissions and their review.
package kyc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("submission not found")
	ErrInvalidTransition = errors.New("submission is not pending")
	ErrInvalid           = errors.New("invalid submission")
	ErrDuplicate         = errors.New("address already has an open or approved submission")
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus parses a status filter value. The empty string is allowed and
// means any status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "", StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, s)
}

// Submission is one business's verification request.
type Submission struct {
	ID                 string    `json:"id"`
	Address            string    `json:"address"`
	BusinessName       string    `json:"businessName"`
	RegistrationNumber string    `json:"registrationNumber"`
	Country            string    `json:"country"`
	RegistrationType   string    `json:"registrationType"`
	Status             Status    `json:"status"`
	RejectionReason    string    `json:"rejectionReason,omitempty"`
	SubmittedAt        time.Time `json:"timestamp"`
	ReviewedAt         time.Time `json:"reviewedAt,omitzero"`
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Status  Status
	Address string
}

// Match reports whether s passes the filter.
func (f Filter) Match(s *Submission) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.Address != "" && !strings.EqualFold(f.Address, s.Address) {
		return false
	}
	return true
}

// Repository stores submissions. Update must only move a pending submission
// and returns ErrInvalidTransition otherwise.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Submission, error)
	Append(ctx context.Context, s *Submission) error
	Update(ctx context.Context, id string, status Status, reason string) (*Submission, error)
}

var registrationTypes = map[string]string{
	"nigeria":        "CAC",
	"united states":  "EIN",
	"united kingdom": "Company House",
	"canada":         "BN",
}

// RegistrationTypeFor returns the registration scheme name used in country.
func RegistrationTypeFor(country string) string {
	if t, ok := registrationTypes[strings.ToLower(strings.TrimSpace(country))]; ok {
		return t
	}
	return "Business Registration"
}
