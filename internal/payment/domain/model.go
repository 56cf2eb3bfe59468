package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

type TargetType string

const (
	TargetProject TargetType = "project"
	TargetLead    TargetType = "lead"
)

// Failure reasons recorded on the attempt. Never sent to external callers.
const (
	ReasonGatewayDeclined    = "gateway_declined"
	ReasonGatewayUnreachable = "gateway_unreachable"
	ReasonAmountMismatch     = "amount_mismatch"
)

// PaymentAttempt is one row of the payment ledger. Amount is in NGN major
// units; the gateway adapter owns the kobo conversion.
type PaymentAttempt struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Reference       string         `json:"reference" gorm:"type:text;not null;uniqueIndex"`
	UserID          *snowflake.ID  `json:"user_id"`
	TargetType      TargetType     `json:"target_type" gorm:"type:text;not null"`
	TargetID        snowflake.ID   `json:"target_id" gorm:"not null"`
	Amount          int64          `json:"amount" gorm:"not null"`
	Currency        string         `json:"currency" gorm:"type:text;not null"`
	Status          Status         `json:"status" gorm:"type:text;not null"`
	FailureReason   string         `json:"failure_reason" gorm:"type:text"`
	GatewayResponse datatypes.JSON `json:"gateway_response" gorm:"type:jsonb"`
	PaidAt          *time.Time     `json:"paid_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }
