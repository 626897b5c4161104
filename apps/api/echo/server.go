package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"
	"golang.org/x/time/rate"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/core/user"
	"github.com/uniasistencia/backend/services/metrics"
)

type (
	// Options tune the server; the zero value is usable in tests.
	Options struct {
		Address          string
		Debug            bool
		DisableReqLogs   bool
		CORSAllowOrigins []string
		LoginRateLimit   float64 // requests per second per IP; 0 disables the limit
	}

	// Deps are the services behind the API.
	Deps struct {
		dig.In

		Teachers            *teacher.Service
		Students            *student.Service
		Administrators      *administrator.Service
		Courses             *course.Service
		Schedules           *schedule.Service
		Attendance          *attendance.Service
		Users               *user.Service
		NotificationConfigs *notification.ConfigService
		History             *notification.HistoryService
		Dispatcher          *notification.Dispatcher
		Job                 *notification.Job
		Mailer              core.EmailService
		Metrics             *metrics.Metrics    `optional:"true"`
		Gatherer            prometheus.Gatherer `optional:"true"`
		Validate            *validator.Validate
		Translator          ut.Translator
		Logger              core.Logger
	}

	Server struct {
		opts     Options
		deps     Deps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(opts Options, deps Deps) *Server {
	s := &Server{
		opts:     opts,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.opts.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if s.deps.Metrics != nil {
		s.app.Use(s.deps.Metrics.Middleware())
	}
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if len(s.opts.CORSAllowOrigins) > 0 {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: s.opts.CORSAllowOrigins}))
	}

	s.app.GET("/", home)
	if s.deps.Gatherer != nil {
		s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}

	g := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	var limiter []echo.MiddlewareFunc
	if s.opts.LoginRateLimit > 0 {
		store := middleware.NewRateLimiterMemoryStore(rate.Limit(s.opts.LoginRateLimit))
		limiter = append(limiter, middleware.RateLimiter(store))
	}

	registerAuthAPI(g, jwt, limiter, s.deps.Users, s.deps.Validate)
	registerTeacherAPI(g.Group("/teachers", jwt), s.deps.Teachers, s.deps.Validate)
	registerStudentAPI(g.Group("/students", jwt), s.deps.Students, s.deps.Validate)
	registerAdministratorAPI(g.Group("/administrators", jwt), s.deps.Administrators, s.deps.Validate)
	registerCourseAPI(g.Group("/courses", jwt), s.deps.Courses, s.deps.Validate)
	registerScheduleAPI(g.Group("/schedules", jwt), s.deps.Schedules, s.deps.Validate)
	registerAttendanceAPI(g.Group("/attendance", jwt), s.deps.Attendance, s.deps.Validate)
	registerUserAPI(g.Group("/users", jwt), s.deps.Users, s.deps.Validate)
	registerNotificationAPI(g.Group("/notifications", jwt), notificationApi{
		configs:    s.deps.NotificationConfigs,
		history:    s.deps.History,
		dispatcher: s.deps.Dispatcher,
		job:        s.deps.Job,
		validate:   s.deps.Validate,
	})
	registerMailAPI(g.Group("/mail", jwt, adminOnly), s.deps.Mailer, s.deps.Validate)
}

// Start listens until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
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
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Bienvenido a la API de Gestión Universitaria"})
}
