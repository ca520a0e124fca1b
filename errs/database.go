package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrStorageFailed      = errors.New("storage operation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrBrokenReference    = errors.New("references a missing record")
)

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

type storageFailure int

const (
	failureUnknown storageFailure = iota
	failureDuplicate
	failureBrokenReference
	failureMissing
	failureUnavailable
)

// classifyStorageError recognises the errors gorm translates first and falls
// back to the PostgreSQL and SQLite driver messages.
func classifyStorageError(cause error) storageFailure {
	switch {
	case cause == nil:
		return failureUnknown
	case errors.Is(cause, gorm.ErrDuplicatedKey):
		return failureDuplicate
	case errors.Is(cause, gorm.ErrForeignKeyViolated):
		return failureBrokenReference
	case errors.Is(cause, gorm.ErrRecordNotFound):
		return failureMissing
	}

	msg := strings.ToLower(cause.Error())
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint"):
		return failureDuplicate
	case strings.Contains(msg, "foreign key"):
		return failureBrokenReference
	case strings.Contains(msg, "record not found"):
		return failureMissing
	case strings.Contains(msg, "connection"), strings.Contains(msg, "database is locked"):
		return failureUnavailable
	}
	return failureUnknown
}

// NewDatabaseError turns a failed storage operation on entity into an API
// error. Unrecognised causes are a 500.
func NewDatabaseError(operation, entity string, cause error) *ApiErr {
	apiErr := &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStorageFailed,
		Details:    fmt.Sprintf("could not %s %s", operation, entity),
		Cause:      cause,
	}

	switch classifyStorageError(cause) {
	case failureDuplicate:
		apiErr.StatusCode = http.StatusConflict
		apiErr.err = fmt.Errorf("%s already stored: %w", entity, ErrConflict)
	case failureBrokenReference:
		apiErr.StatusCode = http.StatusBadRequest
		apiErr.err = fmt.Errorf("%s %w", entity, ErrBrokenReference)
	case failureMissing:
		apiErr.StatusCode = http.StatusNotFound
		apiErr.err = fmt.Errorf("%s %w", entity, ErrNotFound)
	case failureUnavailable:
		apiErr.StatusCode = http.StatusServiceUnavailable
		apiErr.err = ErrStorageUnavailable
	}
	return apiErr
}
