package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"papertrade/internal/apperr"

	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

var validate = validator.New()

// ReadJSON decodes a single JSON object from the request body and validates
// it against its `validate` struct tags.
func ReadJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
			}
			return errors.New("validation failed: " + strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status code. Faults are reported generically.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := Status(err)
	if apperr.IsFault(err) {
		WriteJSON(w, status, ErrorResponse{Error: "internal error", Kind: string(apperr.KindStoreUnavailable)})
		return
	}
	var ae *apperr.Error
	msg := err.Error()
	if errors.As(err, &ae) {
		msg = ae.Msg
	}
	WriteJSON(w, status, ErrorResponse{Error: msg, Kind: string(kind)})
}

func Status(err error) int {
	switch apperr.KindOf(err) {
	case "", apperr.KindStoreUnavailable:
		return http.StatusInternalServerError
	case apperr.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperr.KindUnknownAccount:
		return http.StatusNotFound
	case apperr.KindDuplicateUsername:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
