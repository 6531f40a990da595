package models

import "errors"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrInvalidStatus     = errors.New("status must be approved or rejected")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ParseDecision accepts the two statuses a moderator may set.
func ParseDecision(raw string) (Status, error) {
	switch Status(raw) {
	case StatusApproved, StatusRejected:
		return Status(raw), nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CheckTransition allows pending -> approved|rejected. Re-applying the
// current terminal status is accepted as a no-op.
func CheckTransition(from, to Status) error {
	if !to.Terminal() {
		return ErrInvalidStatus
	}
	if from == StatusPending || from == to {
		return nil
	}
	return ErrInvalidTransition
}
