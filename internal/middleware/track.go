// Package middleware holds the echo middleware shared by every route
package middleware

import (
	"fmt"
	"time"

	"ask-api/internal/ctx"
	"ask-api/internal/metrics"
	"ask-api/internal/shared"

	"github.com/aidarkhanov/nanoid"
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func NewTrackMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID, _ := nanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 28)
			reqID = "req_" + reqID
			logValues := &ctx.ContextLogValues{
				RequestID: reqID,
				StartTime: time.Now(),
				Path:      c.Path(),
			}
			cc := &ctx.Context{
				Context:   c,
				Log:       log.With("request_id", reqID),
				Reqid:     reqID,
				LogValues: logValues,
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)

			err := next(cc)
			if err != nil {
				// let echo write the response before we read the status
				c.Error(err)
				logValues.AddError(err)
			}

			logValues.RequestDuration = time.Since(logValues.StartTime)
			logValues.StatusCode = c.Response().Status
			switch {
			case logValues.StatusCode >= 500:
				log.Errorw("end_of_request", zap.Object("values", logValues))
			case logValues.StatusCode >= 400:
				log.Warnw("end_of_request", zap.Object("values", logValues))
			default:
				log.Infow("end_of_request", zap.Object("values", logValues))
			}
			metrics.ResponseCodes.WithLabelValues(logValues.Path, fmt.Sprintf("%d", logValues.StatusCode)).Inc()
			return nil
		}
	}
}

func NewRecoverMiddleware(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return emw.RecoverWithConfig(emw.RecoverConfig{
		StackSize: 1 << 10, // 1 KB
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			defer func() {
				_ = log.Sync()
			}()
			log.Errorw("Api Panic", "error", err.Error(), "stack", string(stack))
			return c.JSON(500, shared.ErrorResponse{Error: shared.ErrInternalServerError.Message()})
		},
	})
}
