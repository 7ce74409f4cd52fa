// Package errors provides structured error types for boardwalk.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for boardwalk.
const (
	// Lookup errors
	CodeTaskNotFound         Code = "TASK_NOT_FOUND"
	CodeColumnNotFound       Code = "COLUMN_NOT_FOUND"
	CodeBoardNotFound        Code = "BOARD_NOT_FOUND"
	CodeRelationshipNotFound Code = "RELATIONSHIP_NOT_FOUND"

	// Relationship errors
	CodeDuplicateRelationship Code = "DUPLICATE_RELATIONSHIP"
	CodeSelfRelationship      Code = "SELF_RELATIONSHIP"
	CodeCycleDetected         Code = "CYCLE_DETECTED"
	CodeInvalidKind           Code = "INVALID_RELATIONSHIP_KIND"

	// Move errors
	CodeNoDestinationColumn Code = "NO_DESTINATION_COLUMN"

	// Mutation errors
	CodeInvalidMutationPlan Code = "INVALID_MUTATION_PLAN"
	CodeStorageFailure      Code = "STORAGE_FAILURE"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryConflict
	CategoryInternal
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeTaskNotFound:          CategoryNotFound,
	CodeColumnNotFound:        CategoryNotFound,
	CodeBoardNotFound:         CategoryNotFound,
	CodeRelationshipNotFound:  CategoryNotFound,
	CodeDuplicateRelationship: CategoryConflict,
	CodeSelfRelationship:      CategoryBadRequest,
	CodeCycleDetected:         CategoryConflict,
	CodeInvalidKind:           CategoryBadRequest,
	CodeNoDestinationColumn:   CategoryConflict,
	CodeInvalidMutationPlan:   CategoryBadRequest,
	CodeStorageFailure:        CategoryInternal,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryConflict:
		return 409
	default:
		return 500
	}
}

// Error is the structured error type for boardwalk.
type Error struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the error category for HTTP status mapping.
func (e *Error) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is an Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrTaskNotFound returns an error when a task doesn't exist.
func ErrTaskNotFound(id string) *Error {
	return &Error{
		Code: CodeTaskNotFound,
		What: fmt.Sprintf("task %s not found", id),
		Why:  "No task with this ID exists",
	}
}

// ErrColumnNotFound returns an error when a column doesn't exist.
func ErrColumnNotFound(id string) *Error {
	return &Error{
		Code: CodeColumnNotFound,
		What: fmt.Sprintf("column %s not found", id),
		Why:  "No column with this ID exists",
	}
}

// ErrBoardNotFound returns an error when a board doesn't exist.
func ErrBoardNotFound(id string) *Error {
	return &Error{
		Code: CodeBoardNotFound,
		What: fmt.Sprintf("board %s not found", id),
		Why:  "No board with this ID exists",
	}
}

// ErrRelationshipNotFound returns an error when a relationship doesn't
// exist or belongs to a different task.
func ErrRelationshipNotFound(id string) *Error {
	return &Error{
		Code: CodeRelationshipNotFound,
		What: fmt.Sprintf("relationship %s not found", id),
		Why:  "No relationship with this ID exists on the given task",
	}
}

// ErrDuplicateRelationship returns an error when the identical
// (task, kind, related) triple already exists.
func ErrDuplicateRelationship(taskID, kind, relatedID string) *Error {
	return &Error{
		Code: CodeDuplicateRelationship,
		What: fmt.Sprintf("relationship %s -[%s]-> %s already exists", taskID, kind, relatedID),
		Why:  "Duplicate relationship triples are not allowed",
	}
}

// ErrSelfRelationship returns an error when a task is related to itself.
func ErrSelfRelationship(taskID string) *Error {
	return &Error{
		Code: CodeSelfRelationship,
		What: fmt.Sprintf("task %s cannot be related to itself", taskID),
	}
}

// ErrCycleDetected returns an error when creating an edge would invert an
// existing parent/child pair. The reason names the conflicting edge.
func ErrCycleDetected(reason string) *Error {
	return &Error{
		Code: CodeCycleDetected,
		What: "relationship would create a cycle",
		Why:  reason,
	}
}

// ErrInvalidKind returns an error for an unknown relationship kind.
func ErrInvalidKind(kind string) *Error {
	return &Error{
		Code: CodeInvalidKind,
		What: fmt.Sprintf("invalid relationship kind %q", kind),
		Why:  "Kind must be one of: parent, child, related",
	}
}

// ErrNoDestinationColumn returns an error when a cross-board move targets a
// board with no columns.
func ErrNoDestinationColumn(boardID string) *Error {
	return &Error{
		Code: CodeNoDestinationColumn,
		What: fmt.Sprintf("board %s has no columns", boardID),
		Why:  "A task cannot be moved to a board without at least one column",
	}
}

// ErrInvalidMutationPlan returns an error for malformed mutation input.
func ErrInvalidMutationPlan(reason string) *Error {
	return &Error{
		Code: CodeInvalidMutationPlan,
		What: "invalid mutation plan",
		Why:  reason,
	}
}

// ErrStorageFailure wraps a backend-level transaction or proxy error.
func ErrStorageFailure(err error) *Error {
	return &Error{
		Code:  CodeStorageFailure,
		What:  "storage backend failed to apply mutation",
		Why:   "The transaction was rolled back; no partial state was persisted",
		Cause: err,
	}
}

// AsError attempts to convert an error to a boardwalk Error.
// Returns nil if the error is not one.
func AsError(err error) *Error {
	var bwErr *Error
	if As(err, &bwErr) {
		return bwErr
	}
	return nil
}

// As is a convenience wrapper for errors.As.
func As(err error, target any) bool {
	return asError(err, target)
}

// asError implements errors.As behavior.
func asError(err error, target any) bool {
	if err == nil {
		return false
	}
	if bwErr, ok := err.(*Error); ok {
		if t, ok := target.(**Error); ok {
			*t = bwErr
			return true
		}
	}
	// Check unwrapped error
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		return asError(unwrapper.Unwrap(), target)
	}
	return false
}

// Wrap wraps a generic error into an Error with unknown code.
func Wrap(err error, what string) *Error {
	return &Error{
		Code:  Code("UNKNOWN"),
		What:  what,
		Cause: err,
	}
}
