package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/provision"
	"github.com/trezcool/darasa/core/token"
	"github.com/trezcool/darasa/core/user"
)

var (
	errSendInvitationFailed = errors.New("could not send the invitation")
	errResetPasswordFailed  = errors.New("could not reset the password")
	errCompletionFailed     = errors.New("could not create the account")
)

type provisionApi struct {
	svc    *provision.Service
	logger core.Logger
}

func registerProvisionAPI(g *echo.Group, svc *provision.Service, logger core.Logger) {
	api := provisionApi{svc: svc, logger: logger}

	g.POST("/send-invitation", api.sendInvitation)
	g.POST("/forgot-password", api.forgotPassword)
	g.POST("/validate-reset-token", api.validateResetToken)
	g.POST("/validate-invitation-token", api.validateInvitationToken)
	g.POST("/reset-password", api.resetPassword)
	g.POST("/complete-invitation", api.completeInvitation)
}

// Handlers

func (api *provisionApi) sendInvitation(ctx echo.Context) error {
	var data SendInvitationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendInvitationRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.svc.SendInvitation(ctx.Request().Context(), data.Email, data.FullName, data.Role, data.CreatedBy)
	if err != nil {
		api.logger.Error("sending invitation", errors.Wrap(err, "sending invitation"))
		return core.NewValidationError(errSendInvitationFailed)
	}

	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Invitation sent successfully",
		Token:   inv.Token,
	})
}

func (api *provisionApi) forgotPassword(ctx echo.Context) error {
	var data ForgotPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPasswordRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	// do not reveal whether the email has an account; failures are logged, not returned
	if err := api.svc.ForgotPassword(ctx.Request().Context(), data.Email); err != nil {
		api.logger.Error("requesting password reset", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Password reset email sent successfully",
	})
}

func (api *provisionApi) validateResetToken(ctx echo.Context) error {
	var data ValidateTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateTokenRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	rt, err := api.svc.ValidateResetToken(ctx.Request().Context(), data.Token)
	if err != nil {
		return ctx.JSON(http.StatusOK, ValidateTokenResponse{Valid: false})
	}
	return ctx.JSON(http.StatusOK, ValidateTokenResponse{Valid: true, Email: rt.Email})
}

func (api *provisionApi) validateInvitationToken(ctx echo.Context) error {
	var data ValidateTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ValidateTokenRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inv, err := api.svc.ValidateInvitationToken(ctx.Request().Context(), data.Token)
	if err != nil {
		return ctx.JSON(http.StatusOK, ValidateTokenResponse{Valid: false})
	}
	return ctx.JSON(http.StatusOK, ValidateTokenResponse{
		Valid:    true,
		Email:    inv.Email,
		FullName: inv.Name,
		Role:     inv.Role,
	})
}

func (api *provisionApi) resetPassword(ctx echo.Context) error {
	var data ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data.Token, data.Password); err != nil {
		if errors.Cause(err) == token.ErrInvalidOrExpired {
			return core.NewValidationError(token.ErrInvalidOrExpired)
		}
		api.logger.Error("resetting password", errors.Wrap(err, "resetting password"))
		return core.NewValidationError(errResetPasswordFailed)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Password reset successfully",
	})
}

func (api *provisionApi) completeInvitation(ctx echo.Context) error {
	var data ResetPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.CompleteInvitation(ctx.Request().Context(), data.Token, data.Password)
	if err != nil {
		if errors.Cause(err) == token.ErrInvalidOrExpired {
			return core.NewValidationError(token.ErrInvalidOrExpired)
		}
		if vErr, ok := errors.Cause(err).(*core.ValidationError); ok {
			return vErr
		}
		api.logger.Error("completing invitation", errors.Wrap(err, "completing invitation"))
		return core.NewValidationError(errCompletionFailed)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Account created successfully",
		UserID:  usr.ID,
	})
}

type (
	SendInvitationRequest struct {
		Email     string    `json:"email" validate:"required,email"`
		FullName  string    `json:"full_name" validate:"required"`
		Role      user.Role `json:"role" validate:"required,role"`
		CreatedBy string    `json:"created_by"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ValidateTokenRequest struct {
		Token string `json:"token" validate:"required"`
	}

	ValidateTokenResponse struct {
		Valid    bool      `json:"valid"`
		Email    string    `json:"email,omitempty"`
		FullName string    `json:"full_name,omitempty"`
		Role     user.Role `json:"role,omitempty"`
	}

	ResetPasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token,omitempty"`
		UserID  string `json:"user_id,omitempty"`
	}
)

func (r *SendInvitationRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.FullName = core.CleanString(r.FullName)
	r.CreatedBy = core.CleanString(r.CreatedBy)
	return core.Validate.Struct(r)
}

func (r *ForgotPasswordRequest) Validate() error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return core.Validate.Struct(r)
}

func (r *ValidateTokenRequest) Validate() error {
	r.Token = core.CleanString(r.Token)
	return core.Validate.Struct(r)
}

func (r *ResetPasswordRequest) Validate() error {
	r.Token = core.CleanString(r.Token)
	return core.Validate.Struct(r)
}
