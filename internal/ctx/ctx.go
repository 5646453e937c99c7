// Package ctx
package ctx

import (
	"fmt"
	"time"

	"ask-api/internal/shared"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogValues should only be accessed for logging, and not for
// actual business logic, or any other logic
type ContextLogValues struct {
	// Added in base middleware
	RequestID       string
	StartTime       time.Time
	StatusCode      int
	RequestDuration time.Duration
	Path            string

	// Added in user middleware
	UserID string

	// Added by the ask handler
	RequestCount int64
	QuotaDate    string

	// Added dynamically
	Error error
}

// AddError adds errors to the error chain. Always add errors, even if only warnings.
// Log level is determined by the status code of the request
func (c *ContextLogValues) AddError(err error) {
	if err == nil {
		return
	}
	if c.Error == nil {
		c.Error = err
		return
	}
	c.Error = fmt.Errorf("%w: %w", err, c.Error)
}

func (c *ContextLogValues) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if c.UserID != "" {
		enc.AddString("user_id", c.UserID)
	}
	if c.QuotaDate != "" {
		enc.AddString("quota_date", c.QuotaDate)
		enc.AddInt64("request_count", c.RequestCount)
	}
	enc.AddString("request_id", c.RequestID)
	enc.AddTime("start_time", c.StartTime)
	enc.AddDuration("request_duration", c.RequestDuration)
	enc.AddInt("status_code", c.StatusCode)
	if c.Error != nil {
		enc.AddString("error", c.Error.Error())
	}
	enc.AddString("path", c.Path)
	return nil
}

type Context struct {
	echo.Context
	Log       *zap.SugaredLogger
	Reqid     string
	UserID    string
	LogValues *ContextLogValues
}

// Fail records err for the end of request log line and writes the
// {"error": ...} body with the status code err maps to.
func (c *Context) Fail(err error) error {
	rerr := shared.AsRequestError(err)
	c.LogValues.AddError(err)
	return c.JSON(rerr.StatusCode, shared.ErrorResponse{Error: rerr.Message()})
}
