package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/harmony/internal/openaiconv"
	"github.com/samcharles93/harmony/pkg/harmony"
)

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrSessionNotFound = errors.New("parser session not found")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// errorCode maps library errors to the "code" field of an error body.
func errorCode(err error) (status int, code string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, harmony.ErrUnknownRole), errors.Is(err, openaiconv.ErrUnsupportedRole):
		return http.StatusBadRequest, "unknown_role"
	case errors.Is(err, harmony.ErrGrammar):
		return http.StatusBadRequest, "grammar_error"
	case errors.Is(err, harmony.ErrEncoding):
		return http.StatusBadRequest, "encoding_error"
	case errors.Is(err, harmony.ErrParserFinished):
		return http.StatusConflict, "parser_finished"
	case errors.Is(err, harmony.ErrRender), errors.Is(err, ErrInvalidRequest),
		errors.Is(err, openaiconv.ErrUnsupportedContent), errors.Is(err, openaiconv.ErrUnknownToolCall):
		return http.StatusBadRequest, ""
	case errors.Is(err, harmony.ErrConfig):
		return http.StatusInternalServerError, "config_error"
	}
	return http.StatusInternalServerError, ""
}

// writeLibError writes err with the status its kind maps to. param names
// the request field at fault, if known.
func writeLibError(c *echo.Context, err error, param string) error {
	status, code := errorCode(err)
	errType := "invalid_request_error"
	switch status {
	case http.StatusNotFound:
		errType = "not_found_error"
	case http.StatusInternalServerError:
		errType = "server_error"
	}
	return writeError(c, status, errType, err.Error(), param, code)
}
