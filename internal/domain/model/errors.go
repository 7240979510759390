package model

import "errors"

// Ledger errors. None of these ever leaves a partial mutation behind.
var (
	ErrUnbalanced              = errors.New("journal entry postings do not sum to zero")
	ErrInvalidAccount          = errors.New("posting references an invalid account")
	ErrAccountNotFound         = errors.New("account not found")
	ErrEntryNotFound           = errors.New("journal entry not found")
	ErrClosedPeriod            = errors.New("accounting period is closed")
	ErrAlreadyReversed         = errors.New("journal entry already reversed")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")
	ErrDepositNotFound         = errors.New("security deposit not found")
)

// Compliance errors.
var (
	ErrComplianceRuleNotFound = errors.New("compliance rule not found")
)

// Diagnostics errors.
var (
	ErrDiagnosticGateFailed = errors.New("diagnostic gate failed")
)

// Saga precondition errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrExceedsStateMax   = errors.New("amount exceeds state maximum")
	ErrNoEligibleOwners  = errors.New("no eligible owners")
	ErrNachaFileNotFound = errors.New("nacha file not found")
)

// Saga engine errors.
var (
	ErrSagaInvalidStatus   = errors.New("saga is not in a valid status for this transition")
	ErrSagaNotFound        = errors.New("saga not found")
	ErrStepUnknown         = errors.New("unknown saga step")
	ErrSagaVersionConflict = errors.New("saga was modified concurrently")
)

// Worker errors.
var (
	ErrOutboxClaimFailed = errors.New("outbox claim failed")
	ErrHandlerFailed     = errors.New("event handler failed")
	ErrEventNotFound     = errors.New("outbox event not found")
)

// Migration errors.
var (
	ErrMigrationValidationFailed = errors.New("migration validation failed")
)

// ErrorCode maps a domain error onto its machine-readable code for the API
// surface. Unknown errors map to INTERNAL.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnbalanced):
		return "UNBALANCED"
	case errors.Is(err, ErrInvalidAccount):
		return "INVALID_ACCOUNT"
	case errors.Is(err, ErrAccountNotFound):
		return "ACCOUNT_NOT_FOUND"
	case errors.Is(err, ErrEntryNotFound):
		return "ENTRY_NOT_FOUND"
	case errors.Is(err, ErrClosedPeriod):
		return "CLOSED_PERIOD"
	case errors.Is(err, ErrAlreadyReversed):
		return "ALREADY_REVERSED"
	case errors.Is(err, ErrDuplicateIdempotencyKey):
		return "DUPLICATE_IDEMPOTENCY_KEY"
	case errors.Is(err, ErrComplianceRuleNotFound):
		return "COMPLIANCE_RULE_NOT_FOUND"
	case errors.Is(err, ErrDiagnosticGateFailed):
		return "DIAGNOSTIC_GATE_FAILED"
	case errors.Is(err, ErrInsufficientFunds):
		return "INSUFFICIENT_FUNDS"
	case errors.Is(err, ErrExceedsStateMax):
		return "EXCEEDS_STATE_MAX"
	case errors.Is(err, ErrNoEligibleOwners):
		return "NO_ELIGIBLE_OWNERS"
	case errors.Is(err, ErrSagaInvalidStatus):
		return "SAGA_INVALID_STATUS"
	case errors.Is(err, ErrSagaNotFound):
		return "SAGA_NOT_FOUND"
	case errors.Is(err, ErrStepUnknown):
		return "STEP_UNKNOWN"
	case errors.Is(err, ErrSagaVersionConflict):
		return "SAGA_VERSION_CONFLICT"
	case errors.Is(err, ErrMigrationValidationFailed):
		return "MIGRATION_VALIDATION_FAILED"
	default:
		return "INTERNAL"
	}
}
