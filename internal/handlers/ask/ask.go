// Package ask mediates a conversation request between an authenticated
// caller, their daily quota and the generative language service.
package ask

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"ask-api/internal/ctx"
	"ask-api/internal/shared"

	"github.com/labstack/echo/v4"
)

type Generator interface {
	Generate(ctx context.Context, history json.RawMessage) (string, error)
}

type Quota interface {
	Consume(ctx context.Context, userID string) (*shared.UsageRecord, error)
	Remaining(rec *shared.UsageRecord) int64
	Limit() int64
}

type AskHandler struct {
	quota Quota
	model Generator
}

func NewAskHandler(quota Quota, model Generator) *AskHandler {
	return &AskHandler{quota: quota, model: model}
}

// Ask expects RequireConfig and RequireUser to have run. Once the quota
// write commits the request stays counted, whatever happens downstream.
func (h *AskHandler) Ask(cc echo.Context) error {
	c := cc.(*ctx.Context)

	history, err := readHistory(c.Request().Body)
	if err != nil {
		return c.Fail(err)
	}

	qctx, cancel := context.WithTimeout(c.Request().Context(), shared.DefaultStoreTimeout)
	rec, err := h.quota.Consume(qctx, c.UserID)
	cancel()
	h.setQuotaHeaders(c, rec)
	if err != nil {
		return c.Fail(err)
	}
	c.LogValues.QuotaDate = rec.LastRequestDate
	c.LogValues.RequestCount = rec.RequestCount

	text, err := h.model.Generate(c.Request().Context(), history)
	if err != nil {
		return c.Fail(err)
	}
	return c.JSON(http.StatusOK, shared.AskResponse{Text: text})
}

func readHistory(r io.Reader) (json.RawMessage, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, shared.ErrInvalidRequest.WithCause(err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, shared.ErrInvalidRequest.WithCause(err)
	}
	history, ok := fields["history"]
	if !ok {
		return nil, shared.ErrInvalidRequest
	}
	return history, nil
}

func (h *AskHandler) setQuotaHeaders(c *ctx.Context, rec *shared.UsageRecord) {
	if rec == nil {
		return
	}
	header := c.Response().Header()
	header.Set("X-RateLimit-Limit", strconv.FormatInt(h.quota.Limit(), 10))
	header.Set("X-RateLimit-Remaining", strconv.FormatInt(h.quota.Remaining(rec), 10))
}

// Health is the unauthenticated liveness probe
func Health(c echo.Context) error {
	return c.String(http.StatusOK, shared.HealthMessage)
}
