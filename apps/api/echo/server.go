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

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/core/task"
	"github.com/trezcool/mwalimu/storage/supabase"
)

type (
	ServerDeps struct {
		Conf        *core.Config
		Logger      core.Logger
		Validate    *validator.Validate
		Translator  ut.Translator
		KidSvc      kid.Service
		TaskSvc     task.Service
		SettingsSvc settings.Service
		ChatSvc     chat.Service
		Backends    *supabase.ClientCache
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.INFO)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.auth, s.signalShutdown)

	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	registerChatAPI(api, s.deps.ChatSvc, s.deps.Backends, s.deps.Logger, s.deps.Validate)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()
	registerSettingsAPI(v1, jwt, s.auth, s.deps.SettingsSvc, s.deps.Validate)
	registerKidAPI(v1, jwt, s.deps.KidSvc, s.deps.Validate)
	registerTaskAPI(v1, jwt, s.deps.TaskSvc, s.deps.KidSvc, s.deps.ChatSvc, s.deps.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
