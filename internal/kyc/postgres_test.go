package kyc

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs against a live database only when REVENUE_SCORER_TEST_DSN is set.
func openTestPostgres(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("REVENUE_SCORER_TEST_DSN")
	if dsn == "" {
		t.Skip("REVENUE_SCORER_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := repo.db.ExecContext(ctx, `TRUNCATE kyc_submissions`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := openTestPostgres(t)
	ctx := context.Background()

	sub := &Submission{
		ID:                 uuid.NewString(),
		Address:            "0xAbC",
		BusinessName:       "Acme Ltd",
		RegistrationNumber: "RC1",
		Country:            "Canada",
		RegistrationType:   RegistrationTypeFor("Canada"),
		Status:             StatusPending,
		SubmittedAt:        time.Now().UTC(),
	}
	if err := repo.Append(ctx, sub); err != nil {
		t.Fatalf("append: %v", err)
	}

	dup := *sub
	dup.ID = uuid.NewString()
	dup.Address = "0xabc"
	if err := repo.Append(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate: got %v, want ErrDuplicate", err)
	}

	subs, err := repo.List(ctx, Filter{Status: StatusPending, Address: "0xABC"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].RegistrationType != "BN" {
		t.Fatalf("list: got %+v", subs)
	}

	got, err := repo.Update(ctx, sub.ID, StatusRejected, "blurry scan")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != StatusRejected || got.RejectionReason != "blurry scan" || got.ReviewedAt.IsZero() {
		t.Errorf("update: got %+v", got)
	}

	if _, err := repo.Update(ctx, sub.ID, StatusApproved, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second review: got %v, want ErrInvalidTransition", err)
	}
	if _, err := repo.Update(ctx, uuid.NewString(), StatusApproved, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}
