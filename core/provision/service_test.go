package provision

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/token"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

func newTestService(t *testing.T) (*Service, user.Service) {
	t.Helper()
	db := dummydb.Open()
	users := user.NewService(dummydb.NewUserRepository(db))
	tokens := token.NewService(dummydb.NewTokenRepository(db))
	emailsvc.ClearSentMessages()
	return NewService(tokens, users, emailsvc.NewConsoleServiceMock()), users
}

func lastSentMessage(t *testing.T) core.EmailMessage {
	t.Helper()
	if len(emailsvc.SentMessages) == 0 {
		t.Fatal("no email was sent")
	}
	return emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
}

func TestInvitationRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	admin, err := users.Create(ctx, user.NewUser{Name: "Admin", Email: "admin@school.com", Role: user.RoleAdmin, Password: "adm1n!pass"})
	if err != nil {
		t.Fatalf("Create() admin error = %v", err)
	}

	inv, err := svc.SendInvitation(ctx, " New@Kid.com ", " New Kid ", user.RoleStudent, admin.ID)
	if err != nil {
		t.Fatalf("SendInvitation() error = %v", err)
	}
	if inv.CreatedBy == nil || *inv.CreatedBy != admin.ID {
		t.Errorf("SendInvitation() createdBy = %v, want %q", inv.CreatedBy, admin.ID)
	}

	msg := lastSentMessage(t)
	if got := msg.To[0].Address; got != "new@kid.com" {
		t.Errorf("invitation recipient = %q, want %q", got, "new@kid.com")
	}
	wantLink := core.Conf.FrontendBaseURL + "/invite/" + inv.Token
	if !strings.Contains(msg.TextContent, wantLink) {
		t.Errorf("invitation body missing deep link %q:\n%s", wantLink, msg.TextContent)
	}

	// the recipient follows the link: validate, then complete with a password
	got, err := svc.ValidateInvitationToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("ValidateInvitationToken() error = %v", err)
	}
	if got.Email != "new@kid.com" || got.Name != "New Kid" || got.Role != user.RoleStudent {
		t.Errorf("ValidateInvitationToken() = %+v", got)
	}

	usr, err := svc.CompleteInvitation(ctx, inv.Token, "fresh!pass1")
	if err != nil {
		t.Fatalf("CompleteInvitation() error = %v", err)
	}
	if usr.Email != "new@kid.com" || usr.Role != user.RoleStudent {
		t.Errorf("CompleteInvitation() user = %+v", usr)
	}

	// the new credential works and the token is spent
	if _, err = users.Authenticate(ctx, "new@kid.com", "fresh!pass1"); err != nil {
		t.Errorf("Authenticate() after completion error = %v", err)
	}
	if _, err = svc.CompleteInvitation(ctx, inv.Token, "an0ther!pass"); err != token.ErrInvalidOrExpired {
		t.Errorf("CompleteInvitation() reuse error = %v, want %v", err, token.ErrInvalidOrExpired)
	}
}

func TestSendInvitationUnknownCreator(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// the invitation survives; only the creator reference is dropped
	inv, err := svc.SendInvitation(ctx, "new@kid.com", "New Kid", user.RoleInstructor, "gone-admin-id")
	if err != nil {
		t.Fatalf("SendInvitation() error = %v", err)
	}
	if inv.CreatedBy != nil {
		t.Errorf("SendInvitation() createdBy = %q, want nil", *inv.CreatedBy)
	}
	if _, err = svc.ValidateInvitationToken(ctx, inv.Token); err != nil {
		t.Errorf("ValidateInvitationToken() error = %v", err)
	}
}

func TestForgotPasswordRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	if _, err := users.Create(ctx, user.NewUser{Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleStudent, Password: "0ld!pass"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.ForgotPassword(ctx, "Jane@School.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	msg := lastSentMessage(t)
	if !strings.Contains(msg.TextContent, "Jane Doe") {
		t.Errorf("reset body not personalized:\n%s", msg.TextContent)
	}

	// pull the token out of the emailed deep link
	prefix := core.Conf.FrontendBaseURL + "/reset-password/"
	i := strings.Index(msg.TextContent, prefix)
	if i < 0 {
		t.Fatalf("reset body missing deep link:\n%s", msg.TextContent)
	}
	tok := strings.Fields(msg.TextContent[i+len(prefix):])[0]

	if _, err := svc.ValidateResetToken(ctx, tok); err != nil {
		t.Fatalf("ValidateResetToken() error = %v", err)
	}
	if err := svc.ResetPassword(ctx, tok, "n3w!pass"); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err := users.Authenticate(ctx, "jane@school.com", "n3w!pass"); err != nil {
		t.Errorf("Authenticate() after reset error = %v", err)
	}

	// single use
	if err := svc.ResetPassword(ctx, tok, "y3t!another"); err != token.ErrInvalidOrExpired {
		t.Errorf("ResetPassword() reuse error = %v, want %v", err, token.ErrInvalidOrExpired)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// issues a token and emails it anyway; the body falls back to a generic name
	if err := svc.ForgotPassword(ctx, "nobody@school.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	msg := lastSentMessage(t)
	if got := msg.To[0].Address; got != "nobody@school.com" {
		t.Errorf("reset recipient = %q, want %q", got, "nobody@school.com")
	}
	if !strings.Contains(msg.TextContent, "Hi "+fallbackName) {
		t.Errorf("reset body missing fallback greeting:\n%s", msg.TextContent)
	}
}

func TestValidateExpiredTokens(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	users := user.NewService(dummydb.NewUserRepository(db))

	// pin the store's clock past both lifetimes
	future := time.Now().Add(8 * 24 * time.Hour)
	tokens := token.NewService(dummydb.NewTokenRepositoryAt(db, func() time.Time { return future }))
	emailsvc.ClearSentMessages()
	svc := NewService(tokens, users, emailsvc.NewConsoleServiceMock())

	inv, err := svc.SendInvitation(ctx, "late@school.com", "Late Kid", user.RoleStudent, "")
	if err != nil {
		t.Fatalf("SendInvitation() error = %v", err)
	}
	if _, err := svc.ValidateInvitationToken(ctx, inv.Token); err != token.ErrInvalidOrExpired {
		t.Errorf("ValidateInvitationToken() past expiry error = %v, want %v", err, token.ErrInvalidOrExpired)
	}

	if err := svc.ForgotPassword(ctx, "late@school.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	msg := lastSentMessage(t)
	prefix := core.Conf.FrontendBaseURL + "/reset-password/"
	i := strings.Index(msg.TextContent, prefix)
	if i < 0 {
		t.Fatalf("reset body missing deep link:\n%s", msg.TextContent)
	}
	tok := strings.Fields(msg.TextContent[i+len(prefix):])[0]
	if _, err := svc.ValidateResetToken(ctx, tok); err != token.ErrInvalidOrExpired {
		t.Errorf("ValidateResetToken() past expiry error = %v, want %v", err, token.ErrInvalidOrExpired)
	}
}

func TestResetPasswordInvalidToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if err := svc.ResetPassword(ctx, "nope", "n3w!pass"); err != token.ErrInvalidOrExpired {
		t.Errorf("ResetPassword() error = %v, want %v", err, token.ErrInvalidOrExpired)
	}
	if _, err := svc.CompleteInvitation(ctx, "nope", "n3w!pass"); err != token.ErrInvalidOrExpired {
		t.Errorf("CompleteInvitation() error = %v, want %v", err, token.ErrInvalidOrExpired)
	}
}

func TestCompleteInvitationEmailTaken(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	if _, err := users.Create(ctx, user.NewUser{Name: "Jane Doe", Email: "jane@school.com", Role: user.RoleStudent, Password: "s3cr3t!pass"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	inv, err := svc.SendInvitation(ctx, "jane@school.com", "Jane Doe", user.RoleStudent, "")
	if err != nil {
		t.Fatalf("SendInvitation() error = %v", err)
	}

	_, err = svc.CompleteInvitation(ctx, inv.Token, "n3w!pass")
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("CompleteInvitation() error = %v, want *core.ValidationError", err)
	}
}
