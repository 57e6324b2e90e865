package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"syscall"
)

// ErrorReason categorizes why a deletion failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorInvalidPath
	ErrorCancelled
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorCancelled:
		return "Cancelled"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// DeletionError describes why one item could not be removed and which
// strategy was in effect when it failed.
type DeletionError struct {
	Path      string
	Reason    ErrorReason
	Strategy  Strategy
	Original  error
	Retryable bool
	NeedsSudo bool
}

// Error implements the error interface
func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s: %s via %s (%v)", e.Path, e.Reason, e.Strategy, e.Original)
}

// Unwrap returns the underlying error.
func (e *DeletionError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *DeletionError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		if e.NeedsSudo {
			return fmt.Sprintf("Needs elevated permissions to remove: %s", e.Path)
		}
		return fmt.Sprintf("Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("File is being used: %s (quit the owning application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("Already deleted: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Refused to remove protected path: %s", e.Path)
	case ErrorCancelled:
		return fmt.Sprintf("Skipped after cancellation: %s", e.Path)
	default:
		return fmt.Sprintf("Error removing %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized DeletionError.
// An error that already is a DeletionError is returned as is.
func CategorizeError(path string, err error) *DeletionError {
	if err == nil {
		return nil
	}

	var existing *DeletionError
	if errors.As(err, &existing) {
		return existing
	}

	delErr := &DeletionError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		delErr.Reason = ErrorCancelled
		delErr.Retryable = true
		return delErr
	case os.IsNotExist(err):
		delErr.Reason = ErrorFileNotFound
		return delErr
	case os.IsPermission(err):
		delErr.Reason = ErrorPermissionDenied
		delErr.NeedsSudo = true
		return delErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			delErr.Reason = ErrorPermissionDenied
			delErr.NeedsSudo = true
		case syscall.EBUSY, syscall.ETXTBSY:
			delErr.Reason = ErrorFileInUse
			delErr.Retryable = true
		case syscall.ENOENT:
			delErr.Reason = ErrorFileNotFound
		case syscall.EINVAL:
			delErr.Reason = ErrorInvalidPath
		}
	}
	return delErr
}

// GroupErrors groups deletion errors by reason
func GroupErrors(errs []*DeletionError) map[ErrorReason][]*DeletionError {
	grouped := make(map[ErrorReason][]*DeletionError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*DeletionError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	reasons := make([]ErrorReason, 0, len(grouped))
	for r := range grouped {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })

	var b strings.Builder
	b.WriteString("Issues encountered:\n")
	for i, r := range reasons {
		branch := "├─"
		if i == len(reasons)-1 {
			branch = "└─"
		}
		fmt.Fprintf(&b, "  %s %s: %d items\n", branch, r, len(grouped[r]))
		switch r {
		case ErrorPermissionDenied:
			b.WriteString("  │  Tip: allow elevated removal when prompted\n")
		case ErrorFileInUse:
			b.WriteString("  │  Tip: quit the owning applications and retry\n")
		}
	}
	return b.String()
}
