package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Envelope struct {
	Data   interface{} `json:"data"`
	Status string      `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByCode = map[string]int{
	"not_found":           http.StatusNotFound,
	"bidding_closed":      http.StatusConflict,
	"not_eligible":        http.StatusForbidden,
	"bid_too_low":         http.StatusUnprocessableEntity,
	"already_finalized":   http.StatusConflict,
	"invalid_schedule":    http.StatusBadRequest,
	"invalid_lot_item":    http.StatusBadRequest,
	"invalid_amount":      http.StatusBadRequest,
	"bad_request":         http.StatusBadRequest,
	"not_due":             http.StatusConflict,
	"unauthorized":        http.StatusUnauthorized,
	"forbidden":           http.StatusForbidden,
	"storage_unavailable": http.StatusServiceUnavailable,
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Data: data, Status: "success"})
}

// HTTPErrorHandler renders handler errors as ErrorResponse bodies with the
// status that matches their domain error.
func HTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("Failed to write error response", "error", err)
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
	}

	code := domain.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	return status, ErrorResponse{Error: msg, Code: code}
}

func codeForStatus(status int) string {
	return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrBadRequest, name)
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the struct
// validator over it.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrBadRequest)
	}
	return c.Validate(req)
}
