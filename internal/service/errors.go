package service

import "errors"

// Domain rule violations. Handlers map them to 4xx responses; they are
// never retried.
var (
	ErrCaseNotFound       = errors.New("case not found")
	ErrHospitalNotFound   = errors.New("hospital not found")
	ErrBidNotFound        = errors.New("bid not found")
	ErrCaseNotOpen        = errors.New("case is not accepting bids")
	ErrDueDatePassed      = errors.New("case due date has passed")
	ErrDuplicateBid       = errors.New("hospital already bid on this case")
	ErrInvalidAmount      = errors.New("bid amount out of bounds")
	ErrBidCaseMismatch    = errors.New("bid does not belong to case")
	ErrCaseAlreadyAwarded = errors.New("case already awarded")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateHospital  = errors.New("hospital already exists")
)
