package middleware

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger logs one zerolog entry per request. Health and metrics
// scrapes are logged at debug level.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			lvl := zerolog.InfoLevel
			switch {
			case v.Status >= 500:
				lvl = zerolog.ErrorLevel
			case v.Error != nil:
				lvl = zerolog.WarnLevel
			case c.Path() == "/health" || c.Path() == "/metrics":
				lvl = zerolog.DebugLevel
			}
			log.WithLevel(lvl).
				Err(v.Error).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("session_id", SessionID(c)).
				Msg("request")
			return nil
		},
	})
}
