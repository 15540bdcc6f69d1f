package errors

import "errors"

var (
	ErrInvalidVoteInput       = errors.New("invalid vote input")
	ErrInvalidTimeRange       = errors.New("end date must be after start date")
	ErrInvalidStartDate       = errors.New("start date must not be in the past")
	ErrNotAuthorized          = errors.New("requester lacks group admin capability")
	ErrNoEligibleVoters       = errors.New("group has no eligible voters")
	ErrVoteNotFound           = errors.New("vote not found")
	ErrVoteNotOpen            = errors.New("vote is not open for ballots")
	ErrNotEligible            = errors.New("voter is not eligible for this vote")
	ErrAlreadyVoted           = errors.New("a ballot has already been cast for this voter")
	ErrConflict               = errors.New("vote conflict")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key conflict")
)
