package echoutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// LogHandlerFunc logs each request and its response.
//
// Requests are tagged with X-Request-Id. When a client sends it, that is used as is.
func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := req.Header.Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, rid)

		meth := req.Method
		path := req.URL
		BEGIN := time.Now()
		c.Logger().Infof(
			"< request [%s] @[%s] %s %s", rid, BEGIN, meth, path,
		)

		var err error

		defer func() {
			END := time.Now()
			c.Logger().Infof(
				"> response [%s] @[%s] status = %d (for request @[%s] %s %s) in %v / error = %+v",
				rid, END, c.Response().Status, BEGIN, meth, path, END.Sub(BEGIN), err,
			)
		}()

		err = next(c)
		return err
	}
}

// ParseLevel converts name of log level (debug, info, warn, error or off) into log.Lvl.
//
// Empty string means warn.
func ParseLevel(loglevel string) (log.Lvl, error) {
	switch strings.ToLower(loglevel) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn", "":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return log.WARN, fmt.Errorf("unknown loglevel: %s", loglevel)
	}
}

func SetLevel(e *echo.Echo, loglevel string) {
	lvl, err := ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if err != nil {
		e.Logger.Warnf("%s . fall-backed to warn", err)
	}
}
