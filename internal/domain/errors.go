package domain

import "errors"

// Error kinds. Every business error unwraps to exactly one of these.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// Error is a business rule failure with a message safe to show to callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Identity errors.
var (
	ErrUsernameRequired   = newError(ErrInvalidArgument, "username is required")
	ErrInvalidEmail       = newError(ErrInvalidArgument, "a valid email is required")
	ErrPasswordTooShort   = newError(ErrInvalidArgument, "password must be at least 8 characters")
	ErrUsernameTaken      = newError(ErrConflict, "username already exists")
	ErrEmailTaken         = newError(ErrConflict, "email already exists")
	ErrUserExists         = newError(ErrConflict, "user already exists")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "incorrect username or password")
	ErrInvalidToken       = newError(ErrUnauthenticated, "could not validate credentials")
)

// Plate registry errors.
var (
	ErrInvalidOrdering     = newError(ErrInvalidArgument, "invalid ordering parameter")
	ErrInvalidDeadline     = newError(ErrInvalidArgument, "invalid deadline format")
	ErrDeadlineNotFuture   = newError(ErrInvalidArgument, "deadline must be in the future")
	ErrPlateNumberRequired = newError(ErrInvalidArgument, "plate number is required")
	ErrPlateNumberTooLong  = newError(ErrInvalidArgument, "plate number must be at most 10 characters")
	ErrStaffOnly           = newError(ErrPermissionDenied, "only staff can manage plates")
	ErrPlateNotFound       = newError(ErrNotFound, "plate not found")
	ErrPlateNumberTaken    = newError(ErrConflict, "plate number already exists")
	ErrPlateHasBids        = newError(ErrConflict, "cannot delete plate with active bids")
)

// Bid ledger errors.
var (
	ErrBiddingClosed     = newError(ErrConflict, "bidding is closed")
	ErrDuplicateBid      = newError(ErrConflict, "you already have a bid on this plate")
	ErrNonPositiveAmount = newError(ErrInvalidArgument, "bid amount must be positive")
	ErrBidTooLow         = newError(ErrConflict, "bid must exceed current highest bid")
	ErrBiddingEnded      = newError(ErrPermissionDenied, "bidding period has ended")
	ErrBidViewForbidden  = newError(ErrPermissionDenied, "not authorized to view this bid")
	ErrBidEditForbidden  = newError(ErrPermissionDenied, "not authorized to update this bid")
	ErrBidDropForbidden  = newError(ErrPermissionDenied, "not authorized to delete this bid")
)

// Message returns the caller-facing message of a business error, or "" when
// err carries none.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
