package auditlog

// Audit action messages, one success/error pair per operation.
const (
	EntrySearchSuccess   = "journal entry lookup completed"
	EntrySearchError     = "journal entry lookup failed"
	EntryAddSuccess      = "journal entry created"
	EntryAddError        = "journal entry creation failed"
	EntryUpdateSuccess   = "journal entry updated"
	EntryUpdateError     = "journal entry update failed"
	EntryReversedSuccess = "journal entry reversed"
	EntryReversedError   = "journal entry reversal failed"

	AccountSearchSuccess  = "chart of accounts lookup completed"
	AccountSearchError    = "chart of accounts lookup failed"
	AccountAddSuccess     = "account added to chart"
	AccountAddError       = "adding account to chart failed"
	AccountUpdateSuccess  = "account updated"
	AccountUpdateError    = "account update failed"
	AccountDisableSuccess = "account disabled"
	AccountDisableError   = "disabling account failed"
	AccountEnableSuccess  = "account re-enabled"
)
