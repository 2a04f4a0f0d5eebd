package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/chat"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/seed"
	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/core/upload"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	storagesvc "github.com/trezcool/elimu/services/storage"
	"github.com/trezcool/elimu/storage/database"
	inmemdb "github.com/trezcool/elimu/storage/database/inmem"
	sqlxrepos "github.com/trezcool/elimu/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DB gives access to the database, whatever the engine.
type DB struct {
	// StatusCheck reports whether the database is ready to serve queries.
	StatusCheck func(ctx context.Context) error
	Close       func() error
}

type repositories struct {
	dig.Out

	DB         DB
	User       user.Repository
	Category   category.Repository
	Program    program.Repository
	TrialClass trialclass.Repository
	Chat       chat.Repository
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("API : ", conf), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(logsvc.NewStdLogger("DB : ", conf), conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) repositories {
	if conf.Database.Engine == core.DBEngineInMem {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on shutdown")
		repos := inmemdb.NewRepositories(inmemdb.Open())
		return repositories{
			DB: DB{
				StatusCheck: func(context.Context) error { return nil },
				Close:       func() error { return nil },
			},
			User:       repos.User,
			Category:   repos.Category,
			Program:    repos.Program,
			TrialClass: repos.TrialClass,
			Chat:       repos.Chat,
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	repos := sqlxrepos.NewRepositories(db)
	return repositories{
		DB: DB{
			StatusCheck: func(ctx context.Context) error { return database.StatusCheck(ctx, db) },
			Close:       db.Close,
		},
		User:       repos.User,
		Category:   repos.Category,
		Program:    repos.Program,
		TrialClass: repos.TrialClass,
		Chat:       repos.Chat,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	if conf.Debug || conf.SendgridApiKey == "" {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newUploadService(conf *core.Config) (*upload.Service, error) {
	store, err := storagesvc.NewLocalStore(conf)
	if err != nil {
		return nil, err
	}
	return upload.NewService(store), nil
}

func newTrialClassService(repo trialclass.Repository, mailSvc core.EmailService, progSvc *program.Service) *trialclass.Service {
	return trialclass.NewService(repo, mailSvc, progSvc.Title)
}

func newSeeder(catSvc *category.Service, logger core.Logger) *seed.Seeder {
	return seed.NewSeeder(seed.Categories(catSvc, logger))
}

type depsParam struct {
	dig.In

	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	CategorySvc   *category.Service
	ProgramSvc    *program.Service
	TrialClassSvc *trialclass.Service
	ChatSvc       *chat.Service
	UploadSvc     *upload.Service
	Seeder        *seed.Seeder
}

func newServerDeps(p depsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		CategorySvc:   p.CategorySvc,
		ProgramSvc:    p.ProgramSvc,
		TrialClassSvc: p.TrialClassSvc,
		ChatSvc:       p.ChatSvc,
		UploadSvc:     p.UploadSvc,
		Seeder:        p.Seeder,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	must(c.Provide(user.NewService))
	must(c.Provide(category.NewService))
	must(c.Provide(program.NewService))
	must(c.Provide(newTrialClassService))
	must(c.Provide(chat.NewService))
	must(c.Provide(newUploadService))
	must(c.Provide(newSeeder))

	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	if os.Getenv("DIG_VISUALIZE") != "" {
		_ = dig.Visualize(c, os.Stdout)
	}
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
