package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var rowErr *ratedomain.RowError
	if errors.As(err, &rowErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   strings.ToLower(rowErr.Column),
				Code:    rowErr.Err.Error(),
				Message: rowErr.Error(),
			}},
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, billingdomain.ErrUnknownProvider):
		return http.StatusNotFound, errorPayload{Type: "unknown_provider", Message: "provider is not registered"}
	case errors.Is(err, billingdomain.ErrProviderNotFound):
		return http.StatusNotFound, errorPayload{Type: "provider_not_found", Message: "provider has no deliveries in the period"}
	case errors.Is(err, billingdomain.ErrNoDataForPeriod):
		return http.StatusNotFound, errorPayload{Type: "no_data_for_period", Message: "no weighing data for the period"}
	case errors.Is(err, billingdomain.ErrNoBillableData):
		return http.StatusNotFound, errorPayload{Type: "no_billable_data", Message: "no session in the period has a resolvable weight"}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, weighingdomain.ErrUpstreamUnavailable),
		errors.Is(err, weighingdomain.ErrMalformedPayload):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog labels request errors for the access log.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "server", payload.Type
	}
	return "client", payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billingdomain.ErrInvalidQuery),
		errors.Is(err, providerdomain.ErrInvalidID),
		errors.Is(err, providerdomain.ErrInvalidName),
		errors.Is(err, providerdomain.ErrNameTaken),
		errors.Is(err, truckdomain.ErrInvalidID),
		errors.Is(err, truckdomain.ErrInvalidProvider),
		errors.Is(err, truckdomain.ErrAlreadyExists),
		errors.Is(err, ratedomain.ErrInvalidWorkbook):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, providerdomain.ErrNotFound),
		errors.Is(err, truckdomain.ErrNotFound),
		errors.Is(err, weighingdomain.ErrUpstreamDataMissing):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, billingdomain.ErrInvalidQuery):
		return billingdomain.ErrInvalidQuery.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case providerdomain.ErrNameTaken.Error(), providerdomain.ErrInvalidName.Error():
		return "name"
	case truckdomain.ErrAlreadyExists.Error(), truckdomain.ErrInvalidID.Error(), providerdomain.ErrInvalidID.Error():
		return "id"
	case truckdomain.ErrInvalidProvider.Error():
		return "provider"
	case ratedomain.ErrInvalidWorkbook.Error():
		return "file"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case providerdomain.ErrNameTaken.Error():
		return "provider name already exists"
	case truckdomain.ErrAlreadyExists.Error():
		return "truck already registered"
	default:
		return "invalid value"
	}
}
