package scheduler_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/projectnest/projectnest/internal/clock"
	paymentdomain "github.com/projectnest/projectnest/internal/payment/domain"
	paymentrepo "github.com/projectnest/projectnest/internal/payment/repository"
	"github.com/projectnest/projectnest/internal/scheduler"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingService struct {
	mu       sync.Mutex
	refs     []string
	triggers []string
	err      error
}

func (s *recordingService) InitiateCheckout(ctx context.Context, req paymentdomain.CheckoutRequest) (paymentdomain.CheckoutResponse, error) {
	return paymentdomain.CheckoutResponse{}, nil
}

func (s *recordingService) Reconcile(ctx context.Context, reference string, trigger string) (paymentdomain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, reference)
	s.triggers = append(s.triggers, trigger)
	if s.err != nil {
		return paymentdomain.Outcome{}, s.err
	}
	return paymentdomain.Outcome{Kind: paymentdomain.OutcomeFailed, Reason: paymentdomain.ReasonGatewayDeclined}, nil
}

func (s *recordingService) reconciled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.refs...)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	schema := []string{
		`CREATE TABLE payment_attempts (
			id BIGINT PRIMARY KEY,
			reference TEXT NOT NULL,
			user_id BIGINT,
			target_type TEXT NOT NULL,
			target_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'NGN',
			status TEXT NOT NULL DEFAULT 'pending',
			failure_reason TEXT NOT NULL DEFAULT '',
			gateway_response TEXT,
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_payment_attempts_reference ON payment_attempts(reference)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema exec failed: %v", err)
		}
	}
	return db
}

func seedAttempt(t *testing.T, db *gorm.DB, id int64, reference, status string, createdAt time.Time) {
	t.Helper()
	err := db.Exec(
		`INSERT INTO payment_attempts (id, reference, target_type, target_id, amount, status, failure_reason, created_at, updated_at)
		 VALUES (?, ?, 'project', 1, 7500, ?, '', ?, ?)`,
		id, reference, status, createdAt, createdAt,
	).Error
	if err != nil {
		t.Fatalf("seed attempt: %v", err)
	}
}

func TestRunOnceSweepsOnlyStalePending(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fc := clock.NewFakeClock(now)
	svc := &recordingService{}

	sched, err := scheduler.New(scheduler.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      fc,
		PaymentSvc: svc,
		Repo:       paymentrepo.Provide(),
		Config:     scheduler.Config{MinAge: 30 * time.Minute},
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	seedAttempt(t, db, 1, "ref_old", "pending", now.Add(-2*time.Hour))
	seedAttempt(t, db, 2, "ref_fresh", "pending", now.Add(-time.Minute))
	seedAttempt(t, db, 3, "ref_done", "success", now.Add(-2*time.Hour))
	seedAttempt(t, db, 4, "ref_failed", "failed", now.Add(-2*time.Hour))

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	refs := svc.reconciled()
	if len(refs) != 1 || refs[0] != "ref_old" {
		t.Fatalf("expected only ref_old swept, got %v", refs)
	}
	if svc.triggers[0] != "sweep" {
		t.Fatalf("expected sweep trigger, got %s", svc.triggers[0])
	}
}

func TestRunOnceOrdersOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &recordingService{}

	sched, err := scheduler.New(scheduler.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      clock.NewFakeClock(now),
		PaymentSvc: svc,
		Repo:       paymentrepo.Provide(),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	seedAttempt(t, db, 1, "ref_b", "pending", now.Add(-2*time.Hour))
	seedAttempt(t, db, 2, "ref_a", "pending", now.Add(-3*time.Hour))

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	refs := svc.reconciled()
	if len(refs) != 2 || refs[0] != "ref_a" || refs[1] != "ref_b" {
		t.Fatalf("expected oldest first, got %v", refs)
	}
}

func TestRunOnceSkipsContention(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &recordingService{err: paymentdomain.ErrReconcileContention}

	sched, err := scheduler.New(scheduler.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      clock.NewFakeClock(now),
		PaymentSvc: svc,
		Repo:       paymentrepo.Provide(),
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	seedAttempt(t, db, 1, "ref_busy", "pending", now.Add(-2*time.Hour))

	if err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("contention must not fail the run: %v", err)
	}
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := scheduler.New(scheduler.Params{})
	if err != scheduler.ErrInvalidConfig {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
