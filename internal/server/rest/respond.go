package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/dmitrijs2005/recipebook/internal/common"
)

const (
	detailNotFound        = "Not found."
	detailNoCredentials   = "Authentication credentials were not provided."
	detailInvalidToken    = "Invalid token."
	detailServerError     = "A server error occurred."
	msgBadCredentials     = "Unable to authenticate with provided credentials."
	msgInvalidInteger     = "A valid integer is required."
	msgInvalidList        = "Expected a list of items."
	msgInvalidPk          = "Incorrect type. Expected pk value."
	msgInvalidString      = "Not a valid string."
	msgNoFile             = "No file was submitted."
	detailRequestTooLarge = "Request body is too large."
)

type detail struct {
	Detail string `json:"detail"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithDetail(w http.ResponseWriter, code int, msg string) {
	respondWithJSON(w, code, detail{Detail: msg})
}

// writeError maps service errors onto status codes and bodies. Anything
// unrecognized is logged and hidden behind a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, verr.Fields)
	case errors.Is(err, common.ErrorAuthentication):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {msgBadCredentials}})
	case errors.Is(err, common.ErrorUnauthenticated):
		w.Header().Set("WWW-Authenticate", "Token")
		respondWithDetail(w, http.StatusUnauthorized, detailInvalidToken)
	case errors.Is(err, common.ErrorNotFound):
		respondWithDetail(w, http.StatusNotFound, detailNotFound)
	default:
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondWithDetail(w, http.StatusInternalServerError, detailServerError)
	}
}

// decodeJSON reads a JSON object body into v. An empty body decodes as {}.
// Type mismatches on a known field are reported as field errors.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var verr *common.ValidationError
	if errors.As(err, &verr) {
		return verr
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return common.NewValidationError(typeErr.Field, typeMessage(typeErr.Type))
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errTooLarge
	}

	return &parseError{err: err}
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int64:
		return msgInvalidInteger
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Int64 {
			return msgInvalidPk
		}
		return msgInvalidList
	default:
		return msgInvalidString
	}
}

var errTooLarge = errors.New("request body too large")

type parseError struct{ err error }

func (e *parseError) Error() string { return fmt.Sprintf("JSON parse error - %v", e.err) }

func (e *parseError) Unwrap() error { return e.err }

// writeDecodeError answers a body that could not be decoded.
func (h *Handler) writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *parseError
	switch {
	case errors.As(err, &perr):
		respondWithDetail(w, http.StatusBadRequest, perr.Error())
	case errors.Is(err, errTooLarge):
		respondWithDetail(w, http.StatusRequestEntityTooLarge, detailRequestTooLarge)
	default:
		h.writeError(w, r, err)
	}
}
