package services

import (
	"database/sql"
	"errors"
	"fmt"

	"invoicer/internal/payments"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrStorage                = errors.New("storage error")
	ErrDelivery               = errors.New("delivery failed")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrClientInUse            = errors.New("client is referenced by documents")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailTaken             = errors.New("email already registered")
	ErrPaymentPending         = errors.New("payment not yet confirmed on chain")
	ErrChainUnavailable       = errors.New("chain node unavailable")
)

// The wallet outcomes are shared with the payments package so callers can
// match on either name.
var (
	ErrWalletCancelled = payments.ErrWalletCancelled
	ErrWalletFailed    = payments.ErrWalletFailed
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storageError tags a backend failure. The cause stays in the chain so the
// HTTP layer can still spot unique violations.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// lookupError turns a missing row into ErrNotFound; anything else is a storage failure.
func lookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return storageError(err)
}

// passThrough keeps sentinel errors produced inside a transaction and tags the rest.
func passThrough(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrAuthenticationRequired, ErrNotFound, ErrValidation, ErrStorage, ErrDelivery,
		ErrInvalidTransition, ErrClientInUse, ErrEmailTaken, ErrPaymentPending,
		ErrChainUnavailable, ErrWalletCancelled, ErrWalletFailed,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return storageError(err)
}
