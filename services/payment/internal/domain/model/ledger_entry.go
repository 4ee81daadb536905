package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one attempted or completed payment, unique per (user_id, order_id).
type LedgerEntry struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string          `gorm:"column:user_id;size:128;not null;uniqueIndex:idx_ledger_user_order,priority:1" json:"userId"`
	OrderID       string          `gorm:"column:order_id;size:128;not null;uniqueIndex:idx_ledger_user_order,priority:2" json:"orderId"`
	PaymentID     *string         `gorm:"column:payment_id;size:128" json:"paymentId,omitempty"`
	MasterclassID *string         `gorm:"column:masterclass_id;size:128;index" json:"masterclassId,omitempty"`
	Title         string          `gorm:"size:255" json:"title,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Currency      string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	Status        string          `gorm:"size:20;not null;index" json:"status"`
	Method        string          `gorm:"size:20" json:"method,omitempty"`
	Type          string          `gorm:"size:30;not null;default:'purchase'" json:"type"`
	FailureReason *string         `gorm:"column:failure_reason" json:"failureReason,omitempty"`
	ErrorCode     *string         `gorm:"column:error_code;size:100" json:"errorCode,omitempty"`
	Version       int64           `gorm:"not null;default:1" json:"-"`
	CreatedAt     time.Time       `gorm:"column:created_at;not null" json:"timestamp"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// StringPtr returns nil for an empty string so optional columns stay NULL.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences an optional column.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
