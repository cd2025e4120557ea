package tests

import (
	"os"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/provision"
	"github.com/trezcool/darasa/core/token"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var (
	db      *dummydb.DB
	app     Server
	usrSvc  user.Service
	tokSvc  *token.Service
	provSvc *provision.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	// set up DB & repos
	db = dummydb.Open()
	usrRepo := dummydb.NewUserRepository(db)
	tokRepo := dummydb.NewTokenRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewService(usrRepo)
	tokSvc = token.NewService(tokRepo)
	provSvc = provision.NewService(tokSvc, usrSvc, mailSvc)

	// set up server
	app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Logger:         testLogger{},
			UserSvc:        usrSvc,
			ProvisionSvc:   provSvc,
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}
