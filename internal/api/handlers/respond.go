package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/wonny/aegis/v13/optimizer/internal/runconfig"
)

// maxBodyBytes 요청 본문 상한
const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondValidation reports a field-level validation failure
func respondValidation(w http.ResponseWriter, err runconfig.ValidationError) {
	respondJSON(w, http.StatusBadRequest, map[string]string{
		"error": err.Message,
		"field": err.Field,
	})
}

// decodeJSON strictly decodes a request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	return decodeStrict(http.MaxBytesReader(w, r.Body, maxBodyBytes), v)
}

// decodeStrict decodes one JSON value and rejects unknown fields
func decodeStrict(rd io.Reader, v interface{}) error {
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
