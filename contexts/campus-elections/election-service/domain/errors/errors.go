package errors

import "errors"

var (
	ErrValidation           = errors.New("invalid request input")
	ErrVoterNotFound        = errors.New("voter not found")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrElectionNotFound     = errors.New("election not found")
	ErrCandidateNotFound    = errors.New("candidate not found")
	ErrVoteNotFound         = errors.New("vote not found")
	ErrNotEligible          = errors.New("vote is not eligible")
	ErrDuplicateVote        = errors.New("voter has already voted in this election")
	ErrDuplicateApplication = errors.New("candidate application already exists")
	ErrPendingApproval      = errors.New("voter registration is pending approval")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthenticated      = errors.New("authentication required")
	ErrForbidden            = errors.New("forbidden")
	ErrConflict             = errors.New("resource conflict")
	ErrInvalidTransition    = errors.New("invalid election status transition")
	ErrIdempotencyConflict  = errors.New("idempotency key conflict")

	// Transport failures raised by the remote client. They are retryable and
	// never carry a domain meaning.
	ErrNetwork = errors.New("network failure")
	ErrTimeout = errors.New("request timed out")
)
