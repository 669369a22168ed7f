package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/matzehuels/levelforge/pkg/errors"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	writeJSON(w, statusFor(code), errorResponse{
		Error: errors.UserMessage(err),
		Code:  code,
	})
}

// statusFor maps engine error codes to HTTP statuses. A missing levels
// root is a server misconfiguration, not a client mistake, so it maps to
// 500 while the not-found codes for client-named resources map to 404.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidLevel, errors.ErrCodeInvalidPath, errors.ErrCodeParse:
		return http.StatusBadRequest
	case errors.ErrCodeLevelNotFound, errors.ErrCodeReportNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody unmarshals a JSON request body into v. An empty body is not
// an error; the request keeps its zero values.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
