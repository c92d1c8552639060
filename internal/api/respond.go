// ABOUTME: JSON request decoding, response encoding and error-to-status mapping
// ABOUTME: Every error body has the shape {"error": "..."}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Vladimir-28/FitLife/internal/account"
	"github.com/Vladimir-28/FitLife/internal/activity"
)

const maxJSONBody = 1 << 20

const msgInvalidData = "Formato de datos inválido"

var (
	errNoData      = errors.New("request body is empty or not a JSON object")
	errInvalidData = errors.New("request body has a field of the wrong type")
)

// decodeJSON reads a JSON object into dst. Empty bodies, "{}" and malformed
// JSON all count as no data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return errNoData
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return errNoData
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return errNoData
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errInvalidData
		}
		return errNoData
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps a service error onto a status code. Internal failures are
// logged with the request id and reported with an opaque message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errNoData):
		sendJSONError(w, http.StatusBadRequest, account.MsgNoData)
		return
	case errors.Is(err, errInvalidData):
		sendJSONError(w, http.StatusBadRequest, msgInvalidData)
		return
	}

	var accErr *account.Error
	if errors.As(err, &accErr) {
		status := statusForKind(accErr.Kind)
		if status == http.StatusInternalServerError {
			h.logInternal(r, accErr.Unwrap())
		}
		sendJSONError(w, status, accErr.Message)
		return
	}

	var valErr *activity.ValidationError
	if errors.As(err, &valErr) {
		sendJSONError(w, http.StatusBadRequest, valErr.Message)
		return
	}

	if errors.Is(err, activity.ErrNotFound) {
		sendJSONError(w, http.StatusNotFound, activity.MsgNotFound)
		return
	}

	h.logInternal(r, err)
	sendJSONError(w, http.StatusInternalServerError, account.MsgInternal)
}

func (h *Handler) logInternal(r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err,
	)
}

func statusForKind(k account.Kind) int {
	switch k {
	case account.KindValidation, account.KindConflict:
		return http.StatusBadRequest
	case account.KindUnauthenticated:
		return http.StatusUnauthorized
	case account.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
