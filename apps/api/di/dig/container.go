package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/orbitaplataforma/orbita/apps/api/echo"
	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/study"
	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
	emailsvc "github.com/orbitaplataforma/orbita/services/email"
	firebasesvc "github.com/orbitaplataforma/orbita/services/firebase"
	logsvc "github.com/orbitaplataforma/orbita/services/logger"
	"github.com/orbitaplataforma/orbita/storage/database"
	sqlxrepos "github.com/orbitaplataforma/orbita/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	UserSvc    user.Service
	TenantSvc  tenant.Service
	StudySvc   study.Service
	Verifier   firebasesvc.Verifier
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("API", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger("DB", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newVerifier returns a nil Verifier when Firebase is not configured.
func newVerifier(conf *core.Config, logger core.Logger) firebasesvc.Verifier {
	if !conf.FirebaseEnabled() {
		return nil
	}
	verifier, err := firebasesvc.NewVerifier(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up firebase: %v", err), err)
	}
	return verifier
}

func newUserRepository(db *sqlx.DB) user.Repository     { return sqlxrepos.NewUserRepository(db) }
func newTenantRepository(db *sqlx.DB) tenant.Repository { return sqlxrepos.NewTenantRepository(db) }
func newStudyRepository(db *sqlx.DB) study.Repository   { return sqlxrepos.NewStudyRepository(db) }

func newValidator() *validator.Validate { return validator.New() }

func newServer(p serverParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		UserSvc:    p.UserSvc,
		TenantSvc:  p.TenantSvc,
		StudySvc:   p.StudySvc,
		Verifier:   p.Verifier,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(newVerifier))
	must(c.Provide(newUserRepository))
	must(c.Provide(newTenantRepository))
	must(c.Provide(newStudyRepository))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(tenant.NewService))
	must(c.Provide(study.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
