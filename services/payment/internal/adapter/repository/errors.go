package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	domainErrors "github.com/shivam7053/raga-vachika/services/payment/internal/domain/errors"
)

// PostgreSQL error codes that mean another transaction won the race
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// isContention reports whether err is a lost race the caller may retry
func isContention(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgUniqueViolation:
		return true
	}
	return false
}

// classifyError maps lost races onto domain ErrConcurrentModification and keeps everything else
func classifyError(err error) error {
	if err == nil || errors.Is(err, domainErrors.ErrConcurrentModification) {
		return err
	}
	if isContention(err) {
		return errors.Join(domainErrors.ErrConcurrentModification, err)
	}
	return err
}
