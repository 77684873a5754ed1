package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// APIError is an error that carries the HTTP status it should be rendered
// with.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func NewAPIError(code int, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

var (
	errUnauthorized = func(msg string) *APIError { return NewAPIError(http.StatusUnauthorized, msg) }
	errBadRequest   = func(msg string) *APIError { return NewAPIError(http.StatusBadRequest, msg) }
	errNotFound     = func(msg string) *APIError { return NewAPIError(http.StatusNotFound, msg) }
)

// mapError translates domain errors into API errors.  Anything unknown is a
// 500 that still carries the underlying message.
func mapError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return errBadRequest(ve.Msg)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return NewAPIError(he.Code, msg)
	}

	switch {
	case errors.Is(err, service.ErrLotNotFound):
		return errNotFound("Parking lot not found")
	case errors.Is(err, service.ErrNoAvailableSpot):
		return errBadRequest("No available spots in this lot")
	case errors.Is(err, service.ErrReservationNotFound):
		return errNotFound("Active reservation not found")
	case errors.Is(err, service.ErrCannotShrink):
		return errBadRequest("Cannot remove occupied spots")
	case errors.Is(err, service.ErrLotNotEmpty):
		return errBadRequest("Cannot delete lot with occupied spots")
	case errors.Is(err, repository.ErrUsernameExists):
		return errBadRequest("Username already exists")
	case errors.Is(err, repository.ErrEmailExists):
		return errBadRequest("Email already exists")
	case errors.Is(err, repository.ErrConflict):
		return errBadRequest("Request conflicts with the current state")
	case errors.Is(err, repository.ErrNotFound):
		return errNotFound("Not found")
	case errors.Is(err, jobs.ErrUnknownTask):
		return errNotFound("Task not found")
	}
	return NewAPIError(http.StatusInternalServerError, err.Error())
}

// HTTPErrorHandler renders every error returned by a handler or middleware
// as {"message": ...}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	apiErr := mapError(err)
	if apiErr.Code >= http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(apiErr.Code)
	} else {
		err = c.JSON(apiErr.Code, echo.Map{"message": apiErr.Message})
	}
	if err != nil {
		log.Printf("http: write error response: %v", err)
	}
}
