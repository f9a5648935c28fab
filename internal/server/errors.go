package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/llehouerou/go-bfi"
)

var ErrInvalidRequest = errors.New("invalid_request")

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

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Index   *int   `json:"index,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func (s *Server) writeError(c *echo.Context, route string, status int, errType, msg string) error {
	return s.respond(c, route, status, errorResponse{Error: ErrorBody{Message: msg, Type: errType}})
}

func (s *Server) writeBadRequest(c *echo.Context, route, msg string) error {
	return s.writeError(c, route, http.StatusBadRequest, "invalid_request_error", msg)
}

// writeDecodeError maps a decode failure to 422 with the error kind as
// its type.
func (s *Server) writeDecodeError(c *echo.Context, route string, err error, index *int) error {
	body := ErrorBody{Message: err.Error(), Type: bfi.Kind(err).Name(), Index: index}
	return s.respond(c, route, http.StatusUnprocessableEntity, errorResponse{Error: body})
}
