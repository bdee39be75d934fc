package audithook

// Action constants for audit events.
const (
	// Meter actions
	ActionMeterOpened       = "meter.opened"
	ActionFundsInsufficient = "meter.funds_insufficient"
	ActionLimitExceeded     = "meter.limit_exceeded"

	// Deposit actions
	ActionDepositCharged  = "deposit.charged"
	ActionDepositRefunded = "deposit.refunded"
	ActionAccountReaped   = "deposit.terminated"

	// Settlement actions
	ActionSettlementFinalized = "settlement.finalized"
)

// Resource constants for audit events.
const (
	ResourceMeter      = "meter"
	ResourceAccount    = "account"
	ResourceSettlement = "settlement"
)

// Category constants for audit events.
const (
	CategoryMetering   = "metering"
	CategoryDeposit    = "deposit"
	CategorySettlement = "settlement"
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
	OutcomePartial = "partial"
)
