package middleware

import (
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

func RequestLogger(log logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log.Debug("Request received",
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
				"origin", req.Header.Get("Origin"))
			return next(c)
		}
	}
}
