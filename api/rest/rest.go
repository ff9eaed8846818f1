// Package rest holds the helpers shared by the go-restful web services:
// JSON responders, error bodies and container filters.
package rest

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	// Code is a stable, machine readable identifier, e.g. "destination_exists".
	Code string `json:"code,omitempty"`

	// Description is meant for the developer integrating the API, not for
	// end users.
	Description string `json:"description,omitempty"`

	Fields []ErrorResponseField `json:"fields,omitempty"`
}

// ErrorResponseField points an error at one request parameter.
type ErrorResponseField struct {
	Field       string `json:"field"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
}

type Responder struct {
	w http.ResponseWriter
}

func RespondTo(w http.ResponseWriter) Responder { return Responder{w} }

// Error writes errorData with httpStatusCode, 422 when zero.
func (r Responder) Error(errorData any, httpStatusCode int) {
	if httpStatusCode == 0 {
		httpStatusCode = http.StatusUnprocessableEntity
	}
	r.writeJSON(httpStatusCode, errorData)
}

// Success writes successData with 200, or 204 without a body when
// successData is nil.
func (r Responder) Success(successData any) {
	if successData == nil {
		r.w.WriteHeader(http.StatusNoContent)
		return
	}
	r.writeJSON(http.StatusOK, successData)
}

func (r Responder) SuccessWithHTTPStatusCode(successData any, httpStatusCode int) {
	if httpStatusCode == 0 {
		httpStatusCode = http.StatusOK
	}
	r.writeJSON(httpStatusCode, successData)
}

func (r Responder) writeJSON(httpStatusCode int, data any) {
	r.w.Header().Set("Content-Type", "application/json")
	r.w.WriteHeader(httpStatusCode)
	if err := json.NewEncoder(r.w).Encode(data); err != nil {
		log.Err(err).Int("status", httpStatusCode).Msg("encoding response")
	}
}
