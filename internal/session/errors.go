package session

import "errors"

var (
	ErrInvalidIdentity      = errors.New("user id must not be empty")
	ErrNotAuthenticated     = errors.New("login required")
	ErrNoDraft              = errors.New("no form is open in the builder")
	ErrNoAnswerForm         = errors.New("no form is open for answering")
	ErrAlreadySubmitted     = errors.New("response already submitted")
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrSuperseded           = errors.New("result discarded by a newer navigation")
	ErrInvalidFilter        = errors.New("unknown status filter")
)

// User-facing messages recorded on the session
const (
	MsgSaved            = "form saved"
	MsgPublished        = "form published"
	MsgUnpublished      = "form moved back to draft"
	MsgSaveFailed       = "could not save the form, please retry"
	MsgPublishBlocked   = "fix the warnings before publishing"
	MsgSubmitted        = "response submitted, thank you"
	MsgSubmitFailed     = "could not submit the response, please retry"
	MsgValidationFailed = "some answers need attention"
	MsgNotFound         = "form not found"
	MsgLoadFailed       = "could not load data, please retry"
	MsgResultsBlocked   = "results are available once the form is published"
	MsgInvalidIdentity  = "enter a user id"
)
