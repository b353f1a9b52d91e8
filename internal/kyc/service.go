package kyc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/revenue-scorer/internal/logger"
)

// SubmitRequest is the applicant-provided part of a submission.
type SubmitRequest struct {
	Address            string `json:"address"`
	BusinessName       string `json:"businessName"`
	RegistrationNumber string `json:"registrationNumber"`
	Country            string `json:"country"`
}

// AddressValidator reports whether an account address is well formed.
type AddressValidator func(string) bool

// Service applies submission and review rules on top of a Repository.
type Service struct {
	repo      Repository
	log       zerolog.Logger
	validAddr AddressValidator
	now       func() time.Time
}

// NewService creates a Service. A nil validator accepts any non-empty address.
func NewService(repo Repository, validAddr AddressValidator, log zerolog.Logger) *Service {
	if validAddr == nil {
		validAddr = func(s string) bool { return s != "" }
	}
	return &Service{
		repo:      repo,
		log:       log,
		validAddr: validAddr,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates req and stores it as a pending submission.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	req.Address = strings.TrimSpace(req.Address)
	req.BusinessName = strings.TrimSpace(req.BusinessName)
	req.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	req.Country = strings.TrimSpace(req.Country)

	switch {
	case !s.validAddr(req.Address):
		return nil, fmt.Errorf("%w: invalid address %q", ErrInvalid, req.Address)
	case req.BusinessName == "":
		return nil, fmt.Errorf("%w: business name is required", ErrInvalid)
	case req.RegistrationNumber == "":
		return nil, fmt.Errorf("%w: registration number is required", ErrInvalid)
	}

	sub := &Submission{
		ID:                 uuid.NewString(),
		Address:            req.Address,
		BusinessName:       req.BusinessName,
		RegistrationNumber: req.RegistrationNumber,
		Country:            req.Country,
		RegistrationType:   RegistrationTypeFor(req.Country),
		Status:             StatusPending,
		SubmittedAt:        s.now(),
	}
	if err := s.repo.Append(ctx, sub); err != nil {
		return nil, fmt.Errorf("submit kyc: %w", err)
	}

	log := s.logFor(ctx)
	log.Info().Str("id", sub.ID).Str("address", sub.Address).Str("type", sub.RegistrationType).Msg("submission received")
	return sub, nil
}

// Approve marks a pending submission approved.
func (s *Service) Approve(ctx context.Context, id string) (*Submission, error) {
	sub, err := s.repo.Update(ctx, id, StatusApproved, "")
	if err != nil {
		return nil, fmt.Errorf("approve %s: %w", id, err)
	}
	log := s.logFor(ctx)
	log.Info().Str("id", id).Msg("submission approved")
	return sub, nil
}

// Reject marks a pending submission rejected. A reason is required.
func (s *Service) Reject(ctx context.Context, id, reason string) (*Submission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalid)
	}
	sub, err := s.repo.Update(ctx, id, StatusRejected, reason)
	if err != nil {
		return nil, fmt.Errorf("reject %s: %w", id, err)
	}
	log := s.logFor(ctx)
	log.Info().Str("id", id).Str("reason", reason).Msg("submission rejected")
	return sub, nil
}

// List returns submissions matching f in submission order.
func (s *Service) List(ctx context.Context, f Filter) ([]Submission, error) {
	subs, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list kyc: %w", err)
	}
	return subs, nil
}

func (s *Service) logFor(ctx context.Context) zerolog.Logger {
	return logger.FromContext(ctx, s.log).With().Str("component", "kyc").Logger()
}
