// Package failure defines the error types of the approval flow.
//
// Most failures are returned to the caller and logged once at the command
// boundary. Errors that implement Reported have already been written to the
// log by the code that produced them; the boundary checks IsAlreadyReported
// and only sets the exit status for those.
package failure

import (
	"errors"
	"fmt"

	"github.com/pders01/intent/internal/models"
)

// Reported is implemented by errors whose details were logged where they occurred
type Reported interface {
	error
	AlreadyReported() bool
}

// IsAlreadyReported reports whether any error in err's chain was already logged
func IsAlreadyReported(err error) bool {
	var r Reported
	return errors.As(err, &r) && r.AlreadyReported()
}

// HeadMismatchError means the pull request moved since the suggestion was generated
type HeadMismatchError struct {
	Expected string
	Actual   string
}

func (e *HeadMismatchError) Error() string {
	return fmt.Sprintf("pull request head changed since suggestion was generated (expected %s, found %s)", e.Expected, e.Actual)
}

// CommitError wraps a failed file write, delete or commit lookup
type CommitError struct {
	Op   string
	Path string
	Err  error
}

func (e *CommitError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// ValidationError means the comment does not describe a usable change
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientHistoryError means the local clone cannot resolve the commit a revert needs
type InsufficientHistoryError struct {
	SHA    string
	Result models.GitHistoryValidationResult
}

func (e *InsufficientHistoryError) Error() string {
	if e.Result.Error != "" {
		return fmt.Sprintf("insufficient git history for commit %s: %s", e.SHA, e.Result.Error)
	}
	return fmt.Sprintf("insufficient git history for commit %s", e.SHA)
}

// AlreadyReported is always true: the validator logs before returning
func (e *InsufficientHistoryError) AlreadyReported() bool {
	return true
}

// ActionFailedError carries a failure that has been logged and only needs a non-zero exit
type ActionFailedError struct {
	Reason string
	Err    error
}

func (e *ActionFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}

// AlreadyReported is always true
func (e *ActionFailedError) AlreadyReported() bool {
	return true
}
