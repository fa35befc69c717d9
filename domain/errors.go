package domain

import "errors"

// Pipeline failure taxonomy. Only the first three ever change what the user
// sees; the rest degrade silently and are surfaced through the monitor.
var (
	// ErrValidationDenied means the local input validator rejected the text.
	ErrValidationDenied = errors.New("validation denied")

	// ErrClassificationFlagged means the remote classifier reported a
	// category above the minimum severity.
	ErrClassificationFlagged = errors.New("classification flagged")

	// ErrCompletionFailed means the completion service call failed. Terminal
	// for the turn; the user's own turn is kept, no assistant turn is added.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrClassificationUnavailable means the classifier could not be
	// reached or returned garbage. Swallowed under the fail-open policy.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrAuditDeliveryFailed means the audit batch was not accepted by the
	// ingestion endpoint. Never propagated past the audit dispatcher.
	ErrAuditDeliveryFailed = errors.New("audit delivery failed")
)
