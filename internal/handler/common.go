package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
)

// getUserID extracts the authenticated account id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errUnauthorized("Authentication required")
}

// respond writes the {"message", "data"} envelope.
func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, echo.Map{"message": message, "data": data})
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errBadRequest("invalid " + name)
	}
	return id, nil
}

// bindStrict decodes a JSON body and rejects unknown fields.
func bindStrict(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			return errBadRequest("malformed JSON body")
		}
		return errBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// queryBool reads a boolean query parameter; anything unparsable is false.
func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}

// jobResponse renders a dispatcher result: 202 with a task id when queued,
// 200 with the output when it already ran.
func jobResponse(c echo.Context, asyncMsg, syncMsg string, res jobs.Result) error {
	if res.Async {
		return c.JSON(http.StatusAccepted, echo.Map{"message": asyncMsg, "task_id": res.TaskID, "status": jobs.StateProcessing})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": syncMsg, "task_id": res.TaskID, "result": res.Output, "status": jobs.StateCompleted})
}
