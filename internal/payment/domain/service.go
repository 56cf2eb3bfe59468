package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidTarget    = errors.New("invalid_target")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrUnknownService   = errors.New("unknown_service_code")
	ErrAttemptNotFound  = errors.New("attempt_not_found")
	ErrGatewayInitiate  = errors.New("gateway_initiate_failed")
	ErrIdentityRequired = errors.New("identity_required")
	// ErrReconcileContention means another reconciliation holds the
	// reservation right now. Callers retry or report a generic failure.
	ErrReconcileContention = errors.New("reconcile_contention")
)

// OutcomeKind enumerates what a reconciliation run produced.
type OutcomeKind string

const (
	OutcomeNotFound        OutcomeKind = "not_found"
	OutcomeAlreadyTerminal OutcomeKind = "already_terminal"
	OutcomeFailed          OutcomeKind = "failed"
	OutcomeSucceeded       OutcomeKind = "succeeded"
)

// Outcome is the result of reconciling one reference. Failures in the
// payment itself are data here, not errors; the error return of Reconcile
// is reserved for infrastructure faults.
type Outcome struct {
	Kind OutcomeKind
	// Status echoes the stored terminal status for AlreadyTerminal.
	Status Status
	// Reason is the recorded failure reason for Failed.
	Reason string
	// ProjectID is set for Succeeded and for AlreadyTerminal success echoes.
	ProjectID snowflake.ID
}

// Paid reports whether the outcome represents a settled payment.
func (o Outcome) Paid() bool {
	return o.Kind == OutcomeSucceeded ||
		(o.Kind == OutcomeAlreadyTerminal && o.Status == StatusSuccess)
}

// VerifyResult mirrors the gateway adapter result at the domain boundary.
type VerifyResult struct {
	Success  bool
	Status   string
	Amount   int64
	Email    string
	Reason   string
	Metadata json.RawMessage
	Raw      []byte
}

// Gateway is the outbound payment provider port.
type Gateway interface {
	Initialize(ctx context.Context, email string, amount int64, reference, callbackURL string, metadata json.RawMessage) (string, error)
	Verify(ctx context.Context, reference string) VerifyResult
	VerifySignature(rawBody []byte, header string) bool
}

type CheckoutRequest struct {
	TargetType  TargetType
	TargetID    snowflake.ID
	ServiceCode string
	Email       string
	Topic       string
}

type CheckoutResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}

type Service interface {
	InitiateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutResponse, error)
	Reconcile(ctx context.Context, reference string, trigger string) (Outcome, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, attempt *PaymentAttempt) error
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*PaymentAttempt, error)
	Reserve(ctx context.Context, db *gorm.DB, reference string, now time.Time) (bool, error)
	// ListStalePending returns references of pending attempts created before
	// cutoff, oldest first.
	ListStalePending(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]string, error)
	MarkSucceeded(ctx context.Context, db *gorm.DB, reference string, response []byte, paidAt time.Time) error
	MarkFailed(ctx context.Context, db *gorm.DB, reference string, reason string, response []byte, now time.Time) error
}
