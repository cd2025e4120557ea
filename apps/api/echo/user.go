package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type authApi struct {
	svc    user.Service
	logger core.Logger
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc user.Service, logger core.Logger) {
	api := authApi{svc: svc, logger: logger}

	g.POST("/login", api.login)

	ag := g.Group("", jwt)
	ag.GET("/session", api.session)
	ag.POST("/logout", api.logout)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrAuthenticationFailed {
			// do not reveal whether the email or the password was wrong
			return core.NewValidationError(user.ErrAuthenticationFailed)
		}
		return errors.Wrap(err, "authenticating")
	}

	sess, err := api.svc.OpenSession(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	token, err := GenerateToken(GetUserClaims(usr, sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr})
}

// session re-derives the session's validity from the authoritative records;
// the client must never trust its cached copy. A logged-out session row or a
// deleted profile both end the session even while the JWT itself is unexpired.
func (api *authApi) session(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if _, err := api.svc.GetSession(ctx.Request().Context(), claims.Id); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding session by ID")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// logout never fails from the caller's point of view; invalidation errors are
// logged and swallowed.
func (api *authApi) logout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.CloseSession(ctx.Request().Context(), claims.Id); err != nil {
		api.logger.Error("closing session", errors.Wrap(err, "closing session"))
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return core.Validate.Struct(lr)
}
