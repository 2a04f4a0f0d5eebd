package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/chat"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/seed"
	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/core/upload"
	"github.com/trezcool/elimu/core/user"
	appfs "github.com/trezcool/elimu/fs"
)

const uploadBodyLimit = "20M"

type (
	Deps struct {
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

	Server struct {
		conf     *core.Config
		deps     *Deps
		app      *echo.Echo
		tokens   *TokenIssuer
		metrics  *metrics
		shutdown chan os.Signal
		errors   chan error
	}
)

func NewServer(conf *core.Config, deps *Deps) (*Server, error) {
	rdr, err := newRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "parsing page templates")
	}

	s := &Server{
		conf:     conf,
		deps:     deps,
		app:      echo.New(),
		tokens:   NewTokenIssuer(conf),
		metrics:  newMetrics(),
		shutdown: make(chan os.Signal, 1),
		errors:   make(chan error, 1),
	}
	s.app.Renderer = rdr
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Logger.SetLevel(log.INFO)
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.metrics.middleware)
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	s.app.Use(s.sessionMiddleware)

	s.app.StaticFS("/static", echo.MustSubFS(appfs.FS, "static"))
	s.app.Static(s.conf.Upload.URLPrefix, s.conf.Upload.Dir)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	s.registerPages()
	s.registerAdminPages()
	s.registerProgramPages()

	s.app.POST("/trial-class", s.registerTrialClass)

	api := s.app.Group("/api")
	api.GET("/auth/token", s.authToken)
	api.POST("/seed", s.seed, apiAuthMiddleware(user.RoleAdmin))
	api.POST("/uploads/:endpoint", s.upload, apiAuthMiddleware(), middleware.BodyLimit(uploadBodyLimit))
	s.registerUserAPI(api.Group("/v1"))
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Start serves until the server is shut down; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
