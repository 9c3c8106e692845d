package audithook

// Action constants for audit events.
const (
	// Roster actions
	ActionResidentCreated = "resident.created"

	// Invoice actions
	ActionInvoiceGenerated = "invoice.generated"
	ActionBulkGenerated    = "invoice.bulk_generated"
	ActionInvoicePaid      = "invoice.paid"

	// Collections actions
	ActionDefaultersAnalyzed = "defaulters.analyzed"
	ActionReminderSent       = "reminder.sent"
	ActionDispatchFailed     = "dispatch.failed"

	// Legal notice actions
	ActionNoticeCreated  = "notice.created"
	ActionNoticeSent     = "notice.sent"
	ActionNoticeResolved = "notice.resolved"
	ActionNoticeDeleted  = "notice.deleted"
)

// Resource constants for audit events.
const (
	ResourceResident  = "resident"
	ResourceInvoice   = "invoice"
	ResourceDefaulter = "defaulter"
	ResourceReminder  = "reminder"
	ResourceNotice    = "notice"
)

// Category constants for audit events.
const (
	CategoryRoster      = "roster"
	CategoryBilling     = "billing"
	CategoryPayment     = "payment"
	CategoryCollections = "collections"
	CategoryLegal       = "legal"
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
