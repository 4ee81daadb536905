package entity

import "strings"

// TransactionStatus is the lifecycle state of a ledger entry.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// IsTerminal reports whether no further transition is expected.
// A failed entry can still be overwritten by a successful retry of the same order.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// PaymentMethod records how the order was settled.
type PaymentMethod string

const (
	MethodRazorpay PaymentMethod = "razorpay"
	MethodDummy    PaymentMethod = "dummy"
	MethodFree     PaymentMethod = "free"
)

// TransactionTypePurchase is the only transaction type the platform issues today.
const TransactionTypePurchase = "purchase"

// Order id prefixes synthesized locally rather than issued by the gateway.
const (
	DummyOrderPrefix  = "dummy_"
	FailedOrderPrefix = "failed_"
)

// IsDummyOrder reports whether the order id was synthesized for a zero-amount enrollment.
func IsDummyOrder(orderID string) bool {
	return strings.HasPrefix(orderID, DummyOrderPrefix)
}

// Well-known failure reasons and error codes written to failed entries.
const (
	ReasonInvalidSignature    = "invalid signature"
	ReasonMasterclassMismatch = "masterclass does not match order"
	ReasonDefaultFailure      = "Payment cancelled or failed"

	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodeMasterclassMismatch = "MASTERCLASS_MISMATCH"
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodeOrderCreationFailed = "ORDER_CREATION_FAILED"
)
