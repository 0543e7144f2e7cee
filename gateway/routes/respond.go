package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trovechain/gateway/middleware"
	nativecommon "trovechain/native/common"
)

var errNoSystem = errors.New("routes: ledger required")

// decodeRequest reads a bounded JSON body into dst. Unknown fields are
// rejected so typos in amount names never silently default to zero.
func (a *api) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: missing request body", errBadRequest)
	}
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.bodyLimit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: decode request: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after request", errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message, kind string) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = http.StatusText(status)
	}
	middleware.WriteError(w, status, message, kind)
}

// writeError maps a ledger failure onto the HTTP envelope.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := nativecommon.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		a.logger.Error("api request failed",
			"route", r.URL.Path,
			"kind", string(kind),
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err)
	}
	writeJSONError(w, status, err.Error(), string(kind))
}

func statusFor(kind nativecommon.Kind) int {
	switch kind {
	case nativecommon.KindInvalidOperation, nativecommon.KindPreconditionFailed:
		return http.StatusBadRequest
	case nativecommon.KindResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
