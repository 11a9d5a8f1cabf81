package internal

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTag          = errors.New("duplicate tag")
	ErrUnknownTag            = errors.New("unknown tag")
	ErrInvalidChildSet       = errors.New("invalid child set")
	ErrIndexOrder            = errors.New("index list not strictly ascending")
	ErrPreconditionViolation = errors.New("precondition violation")
	ErrWrongThread           = errors.New("called off the ui goroutine")
	ErrClosed                = errors.New("ui manager closed")
)

// TagError ties a registry failure to the tag that caused it.
type TagError struct {
	Tag    Tag
	Err    error
	Detail string
}

func (e *TagError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("tag %d: %v: %s", e.Tag, e.Err, e.Detail)
	}
	return fmt.Sprintf("tag %d: %v", e.Tag, e.Err)
}

func (e *TagError) Unwrap() error { return e.Err }

func tagError(tag Tag, err error, detail string, args ...any) *TagError {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &TagError{Tag: tag, Err: err, Detail: detail}
}

// OperationError is what the dispatcher reports for every rejected operation.
type OperationError struct {
	Kind    OpKind
	Tag     Tag
	BatchID int64
	Err     error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("batch %d: %s on tag %d: %v", e.BatchID, e.Kind, e.Tag, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Reason maps an error onto a short label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrDuplicateTag):
		return "duplicate_tag"
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrInvalidChildSet):
		return "invalid_child_set"
	case errors.Is(err, ErrIndexOrder):
		return "index_order"
	case errors.Is(err, ErrPreconditionViolation):
		return "precondition"
	case errors.Is(err, ErrWrongThread):
		return "wrong_thread"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "other"
	}
}
