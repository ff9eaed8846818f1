// Package errors maps errors to REST responses.
package errors

import (
	"net/http"

	"github.com/timemore/bucket/api/rest"
	"github.com/timemore/bucket/errors"
	dataerrs "github.com/timemore/bucket/errors/data"
)

const HTTPStatusUnknown = 0

func Response(err error) (statusCode int, respData *rest.ErrorResponse) {
	return responseStatusCode(err), responseBody(err)
}

// RespondTo writes the response for err.
func RespondTo(w http.ResponseWriter, err error) {
	statusCode, body := Response(err)
	rest.RespondTo(w).Error(body, statusCode)
}

func responseStatusCode(err error) (httpStatusCode int) {
	if err == nil {
		return http.StatusOK
	}

	var x interface{ RESTStatusCode() int }
	if errors.As(err, &x) {
		return x.RESTStatusCode()
	}

	switch {
	case errors.Is(err, errors.ErrUnimplemented):
		return http.StatusNotImplemented
	case errors.Is(err, errors.ErrNotFound), errors.IsConfiguration(err):
		return http.StatusNotFound
	case errors.IsCallError(err), dataerrs.IsDataError(err):
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func responseBody(err error) *rest.ErrorResponse {
	if err == nil {
		return nil
	}

	var d interface{ RESTErrorResponseBody() *rest.ErrorResponse }
	if errors.As(err, &d) {
		return d.RESTErrorResponseBody()
	}

	body := &rest.ErrorResponse{Description: err.Error()}

	var argErr errors.ArgumentError
	if errors.As(err, &argErr) {
		field := rest.ErrorResponseField{Field: argErr.ArgumentName()}
		if cause := errors.Unwrap(argErr); cause != nil {
			field.Description = cause.Error()
		}
		body.Code = "invalid_argument"
		body.Fields = append(body.Fields, field)
	}
	return body
}
