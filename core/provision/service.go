// Package provision composes the token service, the credential store and the
// mailer into the invitation and password-reset pipelines.
package provision

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/token"
	"github.com/trezcool/darasa/core/user"
)

// fallbackName personalizes reset emails for addresses without an account
// so that the response shape never leaks whether the email exists.
var fallbackName = "there"

type Service struct {
	tokens  *token.Service
	users   user.Service
	mailSvc core.EmailService
}

func NewService(tokens *token.Service, users user.Service, mailSvc core.EmailService) *Service {
	return &Service{
		tokens:  tokens,
		users:   users,
		mailSvc: mailSvc,
	}
}

type invitationMailData struct {
	Name      string
	Email     string
	RoleLabel string
	ActionURL string
}

type resetMailData struct {
	Name      string
	ActionURL string
}

// SendInvitation issues an invitation token and emails a deep link embedding
// it. The creator reference is dropped (not the invitation) when the inviting
// admin cannot be found.
func (svc *Service) SendInvitation(ctx context.Context, email, name string, role user.Role, createdBy string) (token.Invitation, error) {
	var creator *string
	if createdBy != "" {
		if usr, err := svc.users.GetByID(ctx, createdBy); err == nil {
			creator = &usr.ID
		} else if errors.Cause(err) != user.ErrNotFound {
			return token.Invitation{}, errors.Wrap(err, "finding inviting admin")
		}
	}

	inv, err := svc.tokens.IssueInvitation(ctx, email, name, role, creator)
	if err != nil {
		return token.Invitation{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: inv.Name, Address: inv.Email}},
		Subject:      fmt.Sprintf("You are invited to join %s (%s)", core.Conf.AppName, inv.Role.Label()),
		TemplateName: "invitation",
		TemplateData: invitationMailData{
			Name:      inv.Name,
			Email:     inv.Email,
			RoleLabel: inv.Role.Label(),
			ActionURL: fmt.Sprintf("%s/invite/%s", core.Conf.FrontendBaseURL, inv.Token),
		},
	})
	return inv, nil
}

// ForgotPassword issues a reset token whether or not the email belongs to an
// account; callers acknowledge generically either way.
func (svc *Service) ForgotPassword(ctx context.Context, email string) error {
	rt, err := svc.tokens.IssueReset(ctx, email)
	if err != nil {
		return err
	}

	name := fallbackName
	if usr, err := svc.users.GetByEmail(ctx, rt.Email); err == nil {
		name = usr.Name
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: rt.Email}},
		Subject:      "Reset your password",
		TemplateName: "password_reset",
		TemplateData: resetMailData{
			Name:      name,
			ActionURL: fmt.Sprintf("%s/reset-password/%s", core.Conf.FrontendBaseURL, rt.Token),
		},
	})
	return nil
}

func (svc *Service) ValidateResetToken(ctx context.Context, tok string) (token.ResetToken, error) {
	return svc.tokens.ValidateReset(ctx, tok)
}

func (svc *Service) ValidateInvitationToken(ctx context.Context, tok string) (token.Invitation, error) {
	return svc.tokens.ValidateInvitation(ctx, tok)
}

// ResetPassword redeems a reset token: re-validate, consume, then update the
// credential keyed by the token's email. Consume and the credential update are
// two store round-trips; the per-row used=false guard keeps consumption
// single-use.
func (svc *Service) ResetPassword(ctx context.Context, tok, pwd string) error {
	rt, err := svc.tokens.ValidateReset(ctx, tok)
	if err != nil {
		return err
	}
	if err := svc.tokens.ConsumeReset(ctx, rt.Token); err != nil {
		return errors.Wrap(err, "consuming reset token")
	}
	if err := svc.users.ResetPassword(ctx, rt.Email, pwd); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return nil
}

// CompleteInvitation redeems an invitation token and creates the profile and
// credential from the token's own subject data.
func (svc *Service) CompleteInvitation(ctx context.Context, tok, pwd string) (user.User, error) {
	inv, err := svc.tokens.ValidateInvitation(ctx, tok)
	if err != nil {
		return user.User{}, err
	}
	if err := svc.tokens.ConsumeInvitation(ctx, inv.Token); err != nil {
		return user.User{}, errors.Wrap(err, "consuming invitation")
	}
	usr, err := svc.users.Create(ctx, user.NewUser{
		Name:     inv.Name,
		Email:    inv.Email,
		Role:     inv.Role,
		Password: pwd,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user from invitation")
	}
	return usr, nil
}
