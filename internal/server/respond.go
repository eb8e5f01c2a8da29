package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	consoleerrors "github.com/kubeadapt/kubeadapt-console/internal/errors"
	"github.com/kubeadapt/kubeadapt-console/pkg/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, consoleerrors.ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, consoleerrors.ErrInvalidManifest), stderrors.Is(err, consoleerrors.ErrUnsupportedKind):
		return http.StatusBadRequest
	case stderrors.Is(err, consoleerrors.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// errBodyTooLarge is reported when the request body exceeds the limit.
var errBodyTooLarge = stderrors.New("request body too large")

// decodeJSON reads the request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case stderrors.As(err, &maxErr):
			return errBodyTooLarge
		case stderrors.Is(err, io.EOF) && allowEmpty:
			return nil
		case stderrors.Is(err, io.EOF):
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// readRequest decodes a JSON body and answers 400 or 413 on failure. It
// returns false when the response has been written.
func readRequest(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	if err := decodeJSON(r, v, allowEmpty); err != nil {
		if stderrors.Is(err, errBodyTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return false
	}
	return true
}
