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

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

type (
	// ServerDeps holds all the dependencies of the API server. Everything is
	// injected; the server owns nothing but the echo app itself.
	ServerDeps struct {
		Logger         core.Logger
		UserSvc        user.ServiceInterface
		SubjectSvc     subject.ServiceInterface
		MaterialSvc    material.ServiceInterface
		QuizSvc        quiz.ServiceInterface
		ChatSvc        chat.ServiceInterface
		FileStore      material.FileStore
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	// debug error bodies leak raw error strings; keep them out of test runs
	// so the JSON error contract stays assertable
	s.app.Debug = core.Conf.Debug && !core.Conf.TestMode

	s.app.GET("/", home)
	s.app.Static("/v1/media", core.Conf.MediaRoot)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerSubjectAPI(v1, jwt, s.deps.SubjectSvc, s.deps.Validate)
	registerMaterialAPI(v1, jwt, s.deps.MaterialSvc, s.deps.FileStore, s.deps.Validate)
	registerQuizAPI(v1, jwt, s.deps.QuizSvc, s.deps.Validate)
	registerChatAPI(v1, jwt, s.deps.ChatSvc, s.deps.UserSvc, s.deps.Validate)
}

// Start runs the listener and reports its terminal error on Errors.
// It blocks; run it in a goroutine and select on Errors/ShutdownSignal.
func (s *Server) Start() {
	s.errs <- s.app.Start(core.Conf.Server.Addr)
}

func (s *Server) Errors() <-chan error { return s.errs }

// ShutdownSignal delivers OS interrupt/terminate signals as well as internal
// shutdown requests raised by the error handler on integrity errors.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Soma API!")
}
