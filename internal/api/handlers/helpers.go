package handlers

import (
	"encoding/json"
	"errors"
	"fleet-planning-service/internal/api/dto"
	"fleet-planning-service/internal/domain"
	"fleet-planning-service/internal/platform/validation"
	"fleet-planning-service/internal/routing"
	"io"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, dto.ErrorResponse{Error: msg})
}

// decodeJSON reads exactly one JSON object into v and validates it. An
// empty body leaves v untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	switch {
	case errors.Is(err, io.EOF) && allowEmpty:
	case err != nil:
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	default:
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
			return false
		}
	}

	if err := validation.Struct(v); err != nil {
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Field: validation.FailedField(err)})
		return false
	}
	return true
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
// Solver failures are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var infeasible *routing.InfeasibleError
	switch {
	case errors.As(err, &infeasible):
		writeJSON(w, r, http.StatusConflict, dto.ErrorResponse{
			Error:       err.Error(),
			Suggestions: dto.DelaysFromDomain(infeasible.Suggestions),
		})
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidItinerary),
		errors.Is(err, domain.ErrDisconnectedStation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInfeasible),
		errors.Is(err, domain.ErrInsufficientFPD):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrBudgetExceeded):
		writeError(w, r, http.StatusGatewayTimeout, err.Error())
	default:
		log.Printf("request failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
