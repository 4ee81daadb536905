package entity

import (
	"github.com/shopspring/decimal"
)

// Outcome is the desired resulting state for one order in a user's ledger.
// Empty optional fields leave the existing entry's value untouched on overwrite.
type Outcome struct {
	Status        TransactionStatus
	Amount        decimal.Decimal
	Currency      string
	PaymentID     string
	FailureReason string
	ErrorCode     string
	MasterclassID string
	Title         string
	Method        PaymentMethod
	Type          string
}

// RecordResult tells the caller what recordOutcome did to the ledger.
type RecordResult string

const (
	ResultCreated RecordResult = "created"
	ResultUpdated RecordResult = "updated"
	// ResultUnchanged means the entry was already in the requested state (or a pending
	// outcome met an existing entry) and nothing was written.
	ResultUnchanged RecordResult = "unchanged"
)
