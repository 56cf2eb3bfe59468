package repository

import (
	"context"
	"time"

	"github.com/projectnest/projectnest/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, attempt *domain.PaymentAttempt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_attempts (
			id, reference, user_id, target_type, target_id, amount, currency,
			status, failure_reason, gateway_response, paid_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		attempt.Reference,
		attempt.UserID,
		attempt.TargetType,
		attempt.TargetID,
		attempt.Amount,
		attempt.Currency,
		attempt.Status,
		attempt.FailureReason,
		attempt.GatewayResponse,
		attempt.PaidAt,
		attempt.CreatedAt,
		attempt.UpdatedAt,
	).Error
}

func (r *repo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentAttempt, error) {
	var item domain.PaymentAttempt
	err := db.WithContext(ctx).Raw(
		`SELECT id, reference, user_id, target_type, target_id, amount, currency,
			status, failure_reason, gateway_response, paid_at, created_at, updated_at
		 FROM payment_attempts
		 WHERE reference = ?
		 LIMIT 1`,
		reference,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

// Reserve moves a pending attempt to processing in one conditional update.
// Exactly one caller can win; everyone else sees zero rows affected.
func (r *repo) Reserve(ctx context.Context, db *gorm.DB, reference string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET status = ?, updated_at = ?
		 WHERE reference = ? AND status = ?`,
		domain.StatusProcessing,
		now,
		reference,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListStalePending(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]string, error) {
	var refs []string
	err := db.WithContext(ctx).Raw(
		`SELECT reference
		 FROM payment_attempts
		 WHERE status = ? AND created_at < ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		domain.StatusPending,
		cutoff,
		limit,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *repo) MarkSucceeded(ctx context.Context, db *gorm.DB, reference string, response []byte, paidAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET status = ?, failure_reason = '', gateway_response = ?, paid_at = ?, updated_at = ?
		 WHERE reference = ? AND status = ?`,
		domain.StatusSuccess,
		response,
		paidAt,
		paidAt,
		reference,
		domain.StatusProcessing,
	).Error
}

func (r *repo) MarkFailed(ctx context.Context, db *gorm.DB, reference string, reason string, response []byte, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_attempts
		 SET status = ?, failure_reason = ?, gateway_response = ?, updated_at = ?
		 WHERE reference = ? AND status = ?`,
		domain.StatusFailed,
		reason,
		response,
		now,
		reference,
		domain.StatusProcessing,
	).Error
}
