package audithook

// Action constants for audit events.
const (
	// Contribution actions
	ActionContributionAccepted = "contribution.accepted"
	ActionContributionRejected = "contribution.rejected"

	// Withdrawal actions
	ActionWithdrawalCompleted    = "withdrawal.completed"
	ActionWithdrawalFailed       = "withdrawal.failed"
	ActionWithdrawalUnauthorized = "withdrawal.unauthorized"

	// Lifecycle actions
	ActionLedgerStarted = "ledger.started"
	ActionLedgerStopped = "ledger.stopped"
)

// Resource constants for audit events.
const (
	ResourceContribution = "contribution"
	ResourceWithdrawal   = "withdrawal"
	ResourceLedger       = "ledger"
)

// Category constants for audit events.
const (
	CategoryFunding   = "funding"
	CategoryPayout    = "payout"
	CategoryAccess    = "access"
	CategoryLifecycle = "lifecycle"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
