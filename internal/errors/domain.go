package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reportdesk/report-portal/internal/schema"
)

// ErrorDetails carries the structured part of a schema or payload error
type ErrorDetails struct {
	Sheets   []string              `json:"sheets,omitempty"`
	Fields   []string              `json:"fields,omitempty"`
	Missing  []schema.MissingField `json:"missing,omitempty"`
	Invalid  []schema.InvalidValue `json:"invalid,omitempty"`
	Warnings []string              `json:"warnings,omitempty"`
}

// FromDomainError maps the typed errors of the schema package to an HTTP
// status and APIError. ok is false for any other error.
func FromDomainError(err error) (status int, apiErr *APIError, ok bool) {
	var (
		missingErr   *schema.MissingFieldError
		typeErr      *schema.TypeError
		validErr     *schema.ValidationError
		duplicateErr *schema.DuplicateFieldError
		notFoundErr  *schema.NotFoundError
		schemaErr    *schema.SchemaError
		finalizedErr *schema.AlreadyFinalizedError
	)

	hasMissing := errors.As(err, &missingErr)
	hasInvalid := errors.As(err, &typeErr)
	if hasMissing || hasInvalid {
		details := &ErrorDetails{}
		code := ErrCodeInvalidFormat
		if hasInvalid {
			details.Invalid = typeErr.Invalid
		}
		if hasMissing {
			details.Missing = missingErr.Missing
			details.Fields = missingErr.FieldIDs()
			code = ErrCodeMissingField
		}
		return http.StatusBadRequest, NewAPIErrorWithDetails(code, err.Error(), details), true
	}

	switch {
	case errors.As(err, &validErr):
		return http.StatusBadRequest, NewAPIErrorWithDetails(ErrCodeInvalidInput, validErr.Error(), &ErrorDetails{
			Sheets: validErr.Sheets,
			Fields: validErr.Fields,
		}), true
	case errors.As(err, &duplicateErr):
		return http.StatusConflict, NewAPIErrorWithDetails(ErrCodeAlreadyExists, duplicateErr.Error(), &ErrorDetails{
			Fields: []string{duplicateErr.ID},
		}), true
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, NewAPIError(ErrCodeNotFound, notFoundErr.Error()), true
	case errors.As(err, &finalizedErr):
		return http.StatusConflict, NewAPIError(ErrCodeAlreadyFinalized, finalizedErr.Error()), true
	case errors.As(err, &schemaErr):
		// The stored schema is broken; the caller cannot fix it, so the
		// reason itself stays in the logs.
		details := &ErrorDetails{}
		if schemaErr.Sheet != "" {
			details.Sheets = []string{schemaErr.Sheet}
		}
		if schemaErr.FieldID != "" {
			details.Fields = []string{schemaErr.FieldID}
		}
		return http.StatusInternalServerError, NewAPIErrorWithDetails(ErrCodeSchemaError, "Template schema is inconsistent", details), true
	}
	return 0, nil, false
}

// RespondWithDomainError writes the response for a schema package error and
// reports whether err was one.
func RespondWithDomainError(c *gin.Context, err error) bool {
	status, apiErr, ok := FromDomainError(err)
	if !ok {
		return false
	}
	RespondWithError(c, status, apiErr)
	return true
}
