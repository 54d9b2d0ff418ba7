// Package handler implements the JSON storefront API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/middleware"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// RespondJSON writes v as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes a domain error as a JSON error response. Internal
// details stay in the log; the client sees only the safe message.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	status := errorCodeToHTTPStatus(code)

	logger := middleware.GetLogger(r.Context())
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("code", code),
		slog.Int("status", status),
	}
	if status >= 500 {
		logger.Error("request failed", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	RespondJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// decodeJSON decodes and validates a request body into dst. dst must be
// a pointer to a struct with validate tags.
func decodeJSON(r *http.Request, dst any) error {
	const op = "handler.decode"

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return domain.WrapError(err, domain.EINVALID, op, "Unable to read request body")
	}
	if len(body) == 0 {
		return domain.Errorf(domain.EINVALID, op, "Request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.WrapError(err, domain.EINVALID, op, "Request body is not valid JSON")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.Errorf(domain.EINVALID, op, "Invalid field: %s", verrs[0].Field())
		}
		return domain.WrapError(err, domain.EINVALID, op, "Invalid request body")
	}
	return nil
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
