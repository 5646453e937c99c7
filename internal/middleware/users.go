package middleware

import (
	"context"

	"ask-api/internal/auth"
	"ask-api/internal/config"
	"ask-api/internal/ctx"
	"ask-api/internal/metrics"
	"ask-api/internal/shared"

	"github.com/labstack/echo/v4"
)

type UserMiddleware struct {
	cfg      *config.Config
	verifier auth.Verifier
}

func NewUserMiddleware(cfg *config.Config, verifier auth.Verifier) *UserMiddleware {
	return &UserMiddleware{cfg: cfg, verifier: verifier}
}

// RequireConfig rejects every request while the credentials needed to serve
// it are missing.
func (u *UserMiddleware) RequireConfig(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		if !u.cfg.Ready() || u.verifier == nil {
			c.LogValues.AddError(u.cfg.Problems())
			metrics.ErrorCount.WithLabelValues("config").Inc()
			return c.Fail(shared.ErrConfiguration)
		}
		return next(c)
	}
}

// RequireUser verifies the bearer id token and stores the user id on the
// context
func (u *UserMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(cc echo.Context) error {
		c := cc.(*ctx.Context)
		c.UserID = ""

		token, err := shared.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.Fail(err)
		}

		vctx, cancel := context.WithTimeout(c.Request().Context(), shared.DefaultVerifyTimeout)
		defer cancel()
		uid, err := u.verifier.Verify(vctx, token)
		if err != nil {
			metrics.ErrorCount.WithLabelValues("auth").Inc()
			return c.Fail(err)
		}

		c.UserID = uid
		c.LogValues.UserID = uid
		c.Log = c.Log.With("user_id", uid)
		return next(c)
	}
}
