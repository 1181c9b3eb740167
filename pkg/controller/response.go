package controller

import (
	"net/http"

	"github.com/nimburion/catalog/pkg/observability/logger"
	"github.com/nimburion/catalog/pkg/server/router"
)

// SuccessResponse is the success envelope.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// Success writes 200 {success: true, data}.
func Success(c router.Context, data interface{}) error {
	return c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// Created writes 201 {success: true, data}.
func Created(c router.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// Error logs err with the request id and writes the mapped failure envelope.
// Server errors are logged at error level, client errors at debug.
func Error(c router.Context, log logger.Logger, err error) error {
	status, body := MapError(err)
	reqLog := log.WithContext(c.Request().Context())
	if status >= http.StatusInternalServerError {
		reqLog.Error("request failed", "path", c.Request().URL.Path, "status", status, "error", err)
	} else {
		reqLog.Debug("request rejected", "path", c.Request().URL.Path, "status", status, "error", err)
	}
	return c.JSON(status, body)
}
