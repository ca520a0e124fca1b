package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
)

type Responder struct {
	logger zerolog.Logger
}

func NewResponder(logger zerolog.Logger) Responder {
	return Responder{logger}
}

func (r Responder) WriteJSON(w http.ResponseWriter, data any) {
	r.WriteJSONStatus(w, http.StatusOK, data)
}

// WriteJSONStatus writes data with the given status code. Headers are set
// before the status line goes out.
func (r Responder) WriteJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	// Marshal the data first to check size and handle errors
	jsonData, err := json.Marshal(data)
	if err != nil {
		r.logger.Error().Err(err).Msg("error marshaling response data")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	const maxResponseSize = 10 * 1024 * 1024 // 10MB
	if len(jsonData) > maxResponseSize {
		r.logger.Error().
			Int("responseSize", len(jsonData)).
			Int("maxSize", maxResponseSize).
			Msg("response too large, truncating")

		truncatedJSON, err := json.Marshal(map[string]interface{}{
			"error":        "Response too large",
			"message":      "The requested data exceeds the maximum response size",
			"maxSizeMB":    maxResponseSize / (1024 * 1024),
			"actualSizeMB": len(jsonData) / (1024 * 1024),
		})
		if err != nil {
			r.logger.Error().Err(err).Msg("error marshaling truncated response")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write(truncatedJSON)
		return
	}

	w.WriteHeader(code)
	if _, err := w.Write(jsonData); err != nil {
		r.logger.Error().Err(err).Msg("error writing response")
	}
}

// WriteStatus writes the {status, message} body the admin write endpoints use.
func (r Responder) WriteStatus(w http.ResponseWriter, code int, status, message string) {
	r.WriteJSONStatus(w, code, StatusResponse{Status: status, Message: message})
}

func (r Responder) WriteError(w http.ResponseWriter, err error) {
	var apiErr *errs.ApiErr

	// For unexpected errors, log and return generic internal error
	if !errors.As(err, &apiErr) {
		r.logger.Error().Msg(err.Error())
		r.WriteJSONStatus(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   "Internal Server Error",
			"message": "An unexpected error occurred",
			"status":  "error",
		})
		return
	}

	response := map[string]interface{}{
		"error":  apiErr.Error(),
		"status": "error",
	}

	// Add field information if present (for validation errors)
	if apiErr.Field != "" {
		response["field"] = apiErr.Field
	}

	if apiErr.Details != "" {
		response["details"] = apiErr.Details
	}

	// Add full error chain for debugging (especially useful for database errors)
	if apiErr.Cause != nil {
		response["cause"] = apiErr.GetFullError()
	}

	r.WriteJSONStatus(w, apiErr.StatusCode, response)
}

// wrapDatabaseError wraps a database error with context information
func wrapDatabaseError(operation, entity string, cause error) error {
	return errs.NewDatabaseError(operation, entity, cause)
}

// serviceError turns the sentinel errors of the services package into API
// errors. Anything unknown is reported as a database failure of operation.
func serviceError(operation, entity string, err error) error {
	switch {
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAssetNotFound):
		return errs.NewNotFoundError(err.Error())
	case errors.Is(err, services.ErrReplyTargetNotFound),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrInvalidPost),
		errors.Is(err, services.ErrInvalidFileName),
		errors.Is(err, content.ErrInvalidLocation),
		errors.Is(err, content.ErrNotUnderRoot):
		return errs.NewBadRequestError(err.Error())
	case errors.Is(err, services.ErrAssetTooLarge):
		return errs.NewApiErr(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrGroupNotFound):
		return errs.NewNotFoundError(err.Error())
	case errors.Is(err, services.ErrMissingCredentials):
		return errs.NewBadRequestError(err.Error())
	case errors.Is(err, services.ErrCommentNameTaken),
		errors.Is(err, services.ErrUserExists):
		return errs.NewConflictError(err.Error())
	}
	return wrapDatabaseError(operation, entity, err)
}
