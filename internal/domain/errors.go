package domain

import "errors"

// Battle lifecycle errors
var (
	ErrBattleNotFound           = errors.New("battle not found")
	ErrBattleNotActive          = errors.New("battle is not active")
	ErrAlreadyJoined            = errors.New("user already joined this battle")
	ErrRegistrationClosed       = errors.New("battle registration is closed")
	ErrNotOrganizer             = errors.New("only the organizer can perform this action")
	ErrInsufficientParticipants = errors.New("battle needs at least two participants")
)

// Submission and judgment errors
var (
	ErrNotYourTurn         = errors.New("it is not your turn to submit")
	ErrDeadlineExpired     = errors.New("turn deadline has expired")
	ErrDuplicateSubmission = errors.New("a submission for this turn already exists")
	ErrAlreadyJudged       = errors.New("video has already been judged")
	ErrNotAJudge           = errors.New("user is not a judge of this battle")
	ErrVideoNotFound       = errors.New("battle video not found")
	ErrNotAParticipant     = errors.New("user is not a participant of this battle")
)
