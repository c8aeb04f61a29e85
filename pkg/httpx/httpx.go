// Package httpx holds the small JSON helpers shared by observation
// surfaces. Error envelopes use camelCase keys to match the serialized
// gate-result artifacts they sit next to.
package httpx

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// MaxBodyBytes bounds request bodies. Gate-result artifacts are small;
// anything near this limit is not one.
const MaxBodyBytes = 1 << 20

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, map[string]any{
		"requestId": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	})
}
