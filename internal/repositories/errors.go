package repositories

import "errors"

var (
	// ErrValidation rejects writes with missing required fields before
	// any store call.
	ErrValidation = errors.New("missing required fields")

	ErrMessageNotFound = errors.New("message not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrCompanyNotFound = errors.New("company not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrNotMessageAuthor rejects edits and deletes by anyone but the
	// original author.
	ErrNotMessageAuthor = errors.New("not the message author")

	// ErrMessageDeleted marks operations on an already soft-deleted
	// message. Deleting twice reports this conflict rather than
	// silently succeeding.
	ErrMessageDeleted = errors.New("message already deleted")

	ErrNotGroupMember  = errors.New("not a group member")
	ErrNotGroupCreator = errors.New("only the group creator may do this")
)
