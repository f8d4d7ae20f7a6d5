package models

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a topic operation.
type Kind int

const (
	KindStoreFailure Kind = iota
	KindEmptyContent
	KindContentTooLong
	KindEmptyComment
	KindCommentTooLong
	KindMissingUserID
	KindMissingTopicID
	KindInvalidVoteType
	KindNotFound
	KindNotOwner
)

var kindNames = map[Kind]string{
	KindStoreFailure:    "StoreFailure",
	KindEmptyContent:    "EmptyContent",
	KindContentTooLong:  "ContentTooLong",
	KindEmptyComment:    "EmptyComment",
	KindCommentTooLong:  "CommentTooLong",
	KindMissingUserID:   "MissingUserId",
	KindMissingTopicID:  "MissingTopicId",
	KindInvalidVoteType: "InvalidVoteType",
	KindNotFound:        "NotFound",
	KindNotOwner:        "NotOwner",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValidation reports whether the kind comes from input validation.
func (k Kind) IsValidation() bool {
	switch k {
	case KindEmptyContent, KindContentTooLong, KindEmptyComment, KindCommentTooLong,
		KindMissingUserID, KindMissingTopicID, KindInvalidVoteType:
		return true
	}
	return false
}

// Error is a failure with a message that is safe to show to the requester.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so wrapped store failures still
// compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrEmptyContent    = &Error{Kind: KindEmptyContent, Message: "Content cannot be empty"}
	ErrContentTooLong  = &Error{Kind: KindContentTooLong, Message: "Content must be 500 characters or less"}
	ErrEmptyComment    = &Error{Kind: KindEmptyComment, Message: "Comment cannot be empty"}
	ErrCommentTooLong  = &Error{Kind: KindCommentTooLong, Message: "Comment must be 300 characters or less"}
	ErrMissingUserID   = &Error{Kind: KindMissingUserID, Message: "User ID is required"}
	ErrMissingTopicID  = &Error{Kind: KindMissingTopicID, Message: "Topic ID is required"}
	ErrInvalidVoteType = &Error{Kind: KindInvalidVoteType, Message: "Invalid vote type"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "Topic not found"}
	ErrNotOwner        = &Error{Kind: KindNotOwner, Message: "You can only delete your own posts"}
	ErrStoreFailure    = &Error{Kind: KindStoreFailure, Message: "Store failure"}
)

// StoreFailure wraps a persistence error with a generic message such as
// "Failed to create topic". Errors that already carry a Kind pass through.
func StoreFailure(message string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindStoreFailure, Message: message, Err: err}
}

// KindOf extracts the Kind of err. Errors without one are store failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// MessageOf returns the requester-facing text for err: the domain message for
// validation, ownership and not-found failures, the generic store message
// otherwise. Raw store errors never leak.
func MessageOf(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ErrStoreFailure.Message
	}
	return e.Message
}
