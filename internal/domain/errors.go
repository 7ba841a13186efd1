package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidAccountType = errors.New("invalid account type")

	// Posting errors
	ErrCurrencyMismatch      = errors.New("entry currency does not match account currency")
	ErrInvalidAmount         = errors.New("amount must be a positive whole number of minor units")
	ErrUnbalancedTransaction = errors.New("transaction debits do not equal credits")
	ErrEmptyTransaction      = errors.New("transaction must have at least one entry")
	ErrInvalidEntryType      = errors.New("invalid entry type")

	// Transaction errors
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrTransactionAlreadyReversed = errors.New("transaction has already been reversed")

	// Integrity errors
	ErrIntegrityViolation = errors.New("cached balance does not match ledger entries")

	// Query errors
	ErrInvalidDateRange = errors.New("invalid date range")
)
