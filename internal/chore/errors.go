package chore

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrNoEligibleAssignee      = errors.New("no eligible assignee")
	ErrInvalidRecurrenceConfig = errors.New("repeating task needs always_repeat or a positive repeat_days")
	ErrMissingDueDate          = errors.New("due date is required unless the task always repeats")
	ErrMissingTitle            = errors.New("title is required")
	ErrAlreadyCompleted        = errors.New("task is already completed")
	ErrNotCompleted            = errors.New("task is not completed")
	ErrUnknownArea             = errors.New("area does not belong to the house")
	ErrNotMember               = errors.New("user is not a member of the house")
)
