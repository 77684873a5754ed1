package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{&service.ValidationError{Msg: "Parking lot ID is required"}, http.StatusBadRequest, "Parking lot ID is required"},
		{service.ErrNoAvailableSpot, http.StatusBadRequest, "No available spots in this lot"},
		{fmt.Errorf("allocate: %w", service.ErrLotNotFound), http.StatusNotFound, "Parking lot not found"},
		{service.ErrReservationNotFound, http.StatusNotFound, "Active reservation not found"},
		{service.ErrCannotShrink, http.StatusBadRequest, "Cannot remove occupied spots"},
		{service.ErrLotNotEmpty, http.StatusBadRequest, "Cannot delete lot with occupied spots"},
		{repository.ErrUsernameExists, http.StatusBadRequest, "Username already exists"},
		{repository.ErrEmailExists, http.StatusBadRequest, "Email already exists"},
		{jobs.ErrUnknownTask, http.StatusNotFound, "Task not found"},
		{echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "nope"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "disk on fire"},
	}
	for _, tc := range cases {
		got := mapError(tc.err)
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.Equal(t, tc.msg, got.Message, tc.err.Error())
	}
}

func TestHTTPErrorHandlerRendersMessage(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.GET("/boom", func(c echo.Context) error { return service.ErrNoAvailableSpot })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"No available spots in this lot"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := getUserID(c)
	assert.Equal(t, http.StatusUnauthorized, mapError(err).Code)

	c.Set(middleware.CtxUserID, uint64(12))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), id)
}

func TestBindStrictRejectsUnknownFields(t *testing.T) {
	e := echo.New()
	var dst profileReq

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"email":"a@b.c","role":"admin"}`))
	err := bindStrict(e.NewContext(req, httptest.NewRecorder()), &dst)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, mapError(err).Code)

	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"display_name":"Ravi"}`))
	require.NoError(t, bindStrict(e.NewContext(req, httptest.NewRecorder()), &dst))
	require.NotNil(t, dst.DisplayName)
	assert.Equal(t, "Ravi", *dst.DisplayName)
	assert.Nil(t, dst.Email)
}

func TestJobResponse(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	require.NoError(t, jobResponse(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec),
		"queued", "done", jobs.Result{Async: true, TaskID: "t-1"}))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "t-1", body["task_id"])
	assert.Equal(t, "processing", body["status"])

	rec = httptest.NewRecorder()
	require.NoError(t, jobResponse(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec),
		"queued", "done", jobs.Result{TaskID: "t-2", Output: map[string]int{"sent": 3}}))
	assert.Equal(t, http.StatusOK, rec.Code)
	body = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, map[string]any{"sent": float64(3)}, body["result"])
}
