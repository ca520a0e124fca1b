package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConstructorsWrapSentinels(t *testing.T) {
	require.True(t, IsNotFound(NewNotFoundError("post")))
	require.True(t, IsForbidden(NewForbiddenError("nope")))
	require.True(t, IsBadRequest(NewBadRequestError("bad")))
	require.True(t, IsUnauthorized(Unauthorized))
	require.True(t, IsConflict(NewConflictError("dup")))
	require.Equal(t, http.StatusNotFound, NewNotFoundError("post").StatusCode)
}

func TestNewDatabaseError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
	}{
		{name: "postgres duplicate", cause: errors.New(`duplicate key value violates unique constraint "idx_comments_path"`), status: http.StatusConflict},
		{name: "sqlite duplicate", cause: errors.New("UNIQUE constraint failed: comments.path"), status: http.StatusConflict},
		{name: "missing", cause: errors.New("record not found"), status: http.StatusNotFound},
		{name: "translated duplicate", cause: fmt.Errorf("create user: %w", gorm.ErrDuplicatedKey), status: http.StatusConflict},
		{name: "translated reference", cause: gorm.ErrForeignKeyViolated, status: http.StatusBadRequest},
		{name: "translated missing", cause: gorm.ErrRecordNotFound, status: http.StatusNotFound},
		{name: "sqlite locked", cause: errors.New("database is locked"), status: http.StatusServiceUnavailable},
		{name: "connection", cause: errors.New("connection refused"), status: http.StatusServiceUnavailable},
		{name: "other", cause: errors.New("syntax error"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("find", "comment", tt.cause)
			require.Equal(t, tt.status, err.StatusCode)
			require.ErrorIs(t, err.Cause, tt.cause)
			require.Equal(t, tt.status == http.StatusConflict, IsConflict(err))
			require.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestGetFullErrorFollowsCauses(t *testing.T) {
	inner := NewDatabaseError("save", "setting", errors.New("disk full"))
	outer := NewInternalErrorWithCause("update settings", fmt.Errorf("wrapped: %w", inner))

	full := outer.GetFullError()
	require.Contains(t, full, "update settings")
	require.Contains(t, full, "disk full")
}
