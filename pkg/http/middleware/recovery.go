package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "StockSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover converts handler panics into a 500 with the common error body.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					perr, ok := r.(error)
					if !ok {
						perr = fmt.Errorf("%v", r)
					}
					l.Error("panic recovered",
						applogger.String("path", c.Path()),
						applogger.Error(perr),
						applogger.String("stack", string(debug.Stack())),
					)
					err = c.JSON(http.StatusInternalServerError, map[string]string{
						"error":  "internal_error",
						"detail": "Internal Server Error",
					})
				}
			}()
			return next(c)
		}
	}
}
