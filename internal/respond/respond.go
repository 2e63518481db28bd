package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-condominio-go/internal/scope"
)

// ErrRateLimited is returned by throttling middleware.
var ErrRateLimited = errors.New("too many requests")

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Decode reads a JSON body into v. Failures wrap scope.ErrInvalidArgument.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid payload: %w", scope.ErrInvalidArgument)
	}
	return nil
}

// Status maps an error to an HTTP status and a stable code.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, scope.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, scope.ErrTenantInactive):
		return http.StatusUnauthorized, "tenant_inactive"
	case errors.Is(err, scope.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, scope.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, scope.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, scope.ErrInvalidRole):
		return http.StatusBadRequest, "invalid_role"
	case errors.Is(err, scope.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// Error writes err as an ErrorBody. Server errors are logged and their
// message is not exposed; denials are logged at debug with their reason.
func Error(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	status, code := Status(err)
	msg := err.Error()
	switch {
	case status >= http.StatusInternalServerError:
		if logger != nil {
			logger.Warnw("request failed", "err", err)
		}
		msg = "internal error"
	case status == http.StatusForbidden:
		if logger != nil {
			logger.Debugw("request forbidden", "err", err)
		}
		msg = "forbidden"
	}
	JSON(w, status, ErrorBody{Code: code, Message: msg})
}
