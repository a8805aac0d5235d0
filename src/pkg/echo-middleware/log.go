// Package echomw provides the Echo middlewares of the reminder API.
package echomw

import (
	"slices"
	"time"

	"github.com/labstack/echo/v4"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

// RouteAccessLoggerMiddleware logs every request on the way in and, with status and duration, on the way out.
func RouteAccessLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		started := time.Now()
		LogRouteAccess(c, tl.Verbose, "Accessing route", palette.Blue)

		err := next(c)
		if err != nil {
			c.Error(err) // sets the final status before we log it
		}

		status := c.Response().Status
		switch {
		case status >= 500:
			LogRouteResult(c, tl.Warning, status, time.Since(started), palette.Red)
		case status >= 400:
			LogRouteResult(c, tl.Info1, status, time.Since(started), palette.Yellow)
		default:
			LogRouteResult(c, tl.Info1, status, time.Since(started), palette.Green)
		}
		return nil
	}
}

// Log route access
func LogRouteAccess(c echo.Context, logLevel tl.LogLevel, actionName string, colorizer palette.Colorizer) {
	if isQuiet(c) {
		logLevel = tl.Verbose
		colorizer = palette.CyanDim
	}
	tl.Log(logLevel, colorizer, "%s: Method='%s', Path='%s', ClientIP='%s'", actionName, c.Request().Method, c.Path(), c.RealIP())
}

func LogRouteResult(c echo.Context, logLevel tl.LogLevel, status int, took time.Duration, colorizer palette.Colorizer) {
	if isQuiet(c) && status < 400 {
		logLevel = tl.Verbose
		colorizer = palette.CyanDim
	}
	tl.Log(
		logLevel, colorizer, "Route accessed: Method='%s', Path='%s', Status=%s, Took=%s, ClientIP='%s'",
		c.Request().Method, c.Path(), status, took.Round(time.Millisecond), c.RealIP(),
	)
}

func isQuiet(c echo.Context) bool {
	return slices.Contains(Cfg.QuietPaths, c.Path())
}
