package dig_container

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoapi "github.com/uniasistencia/backend/apps/api/echo"
	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/core/user"
	emailsvc "github.com/uniasistencia/backend/services/email"
	"github.com/uniasistencia/backend/services/lock"
	logsvc "github.com/uniasistencia/backend/services/logger"
	"github.com/uniasistencia/backend/services/metrics"
	"github.com/uniasistencia/backend/services/scheduler"
	"github.com/uniasistencia/backend/storage/database"
	inmemdb "github.com/uniasistencia/backend/storage/database/inmem"
	"github.com/uniasistencia/backend/storage/database/mongodb"
)

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	JobsLoggerParam struct {
		dig.In
		Logger core.Logger `name:"jobsLogger"`
	}

	MailLoggerParam struct {
		dig.In
		Logger core.Logger `name:"mailLogger"`
	}

	// CloseDB releases the database connection.
	CloseDB func(ctx context.Context) error

	stores struct {
		dig.Out
		Teachers       teacher.Repository
		Students       student.Repository
		Administrators administrator.Repository
		Courses        course.Repository
		Schedules      schedule.Repository
		Attendance     attendance.Repository
		Configs        notification.ConfigRepository
		History        notification.HistoryRepository
		Watermarks     notification.WatermarkStore
		Close          CloseDB
	}

	jobParams struct {
		dig.In
		Conf           *core.Config
		Schedules      *schedule.Service
		Attendance     *attendance.Service
		Administrators *administrator.Service
		Configs        *notification.ConfigService
		Dispatcher     *notification.Dispatcher
		Watermarks     notification.WatermarkStore
		Locker         notification.Locker
		Metrics        *metrics.Metrics
		Logger         core.Logger `name:"jobsLogger"`
	}
)

func provideConfig() *core.Config { return core.Conf }

func newRollbarLogger(conf *core.Config) (*logsvc.RollbarLogger, error) {
	sink, err := logsvc.NewZap(conf)
	if err != nil {
		return nil, err
	}
	logger := logsvc.NewRollbarLogger(sink, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger, nil
}

func namedLogger(name string) func(*logsvc.RollbarLogger) core.Logger {
	return func(l *logsvc.RollbarLogger) core.Logger {
		return l.Named(name)
	}
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) (stores, error) {
	logger := loggerParam.Logger

	if conf.Database.Driver == "memory" {
		logger.Warn("using the in-memory store: data is lost on shutdown")
		db := inmemdb.Open()
		return stores{
			Teachers:       inmemdb.NewTeacherRepository(db),
			Students:       inmemdb.NewStudentRepository(db),
			Administrators: inmemdb.NewAdministratorRepository(db),
			Courses:        inmemdb.NewCourseRepository(db),
			Schedules:      inmemdb.NewScheduleRepository(db),
			Attendance:     inmemdb.NewAttendanceRepository(db),
			Configs:        inmemdb.NewConfigRepository(db),
			History:        inmemdb.NewHistoryRepository(db),
			Watermarks:     inmemdb.NewWatermarkStore(db),
			Close:          func(context.Context) error { return nil },
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()

	client, db, err := database.Open(ctx, conf)
	if err != nil {
		return stores{}, errors.Wrap(err, "opening database")
	}
	if err = database.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return stores{}, errors.Wrap(err, "creating indexes")
	}
	logger.Info(fmt.Sprintf("connected to database %q", conf.Database.Name))

	return stores{
		Teachers:       mongodb.NewTeacherRepository(db),
		Students:       mongodb.NewStudentRepository(db),
		Administrators: mongodb.NewAdministratorRepository(db),
		Courses:        mongodb.NewCourseRepository(db),
		Schedules:      mongodb.NewScheduleRepository(db),
		Attendance:     mongodb.NewAttendanceRepository(db),
		Configs:        mongodb.NewConfigRepository(db),
		History:        mongodb.NewHistoryRepository(db),
		Watermarks:     mongodb.NewWatermarkStore(db),
		Close:          client.Disconnect,
	}, nil
}

func newDirectory(t teacher.Repository, s student.Repository, a administrator.Repository) *account.Directory {
	return account.NewDirectory(t, s, a)
}

func newCourseService(repo course.Repository, teachers *teacher.Service) *course.Service {
	return course.NewService(repo, teachers)
}

func newScheduleService(repo schedule.Repository, teachers *teacher.Service, courses *course.Service) *schedule.Service {
	return schedule.NewService(repo, teachers, courses)
}

func newAttendanceService(
	conf *core.Config,
	repo attendance.Repository,
	teachers *teacher.Service,
	courses *course.Service,
	history *notification.HistoryService,
	logger core.Logger,
) *attendance.Service {
	return attendance.NewService(repo, teachers, courses, history, logger, conf.Notifications.Location)
}

func newHistoryService(conf *core.Config, repo notification.HistoryRepository) *notification.HistoryService {
	return notification.NewHistoryService(repo, conf.Notifications.Location)
}

func newEmailService(conf *core.Config, loggerParam MailLoggerParam) core.EmailService {
	return emailsvc.New(conf, loggerParam.Logger)
}

func newDispatcher(
	conf *core.Config,
	mailer core.EmailService,
	configs *notification.ConfigService,
	history *notification.HistoryService,
	teachers *teacher.Service,
	loggerParam MailLoggerParam,
	m *metrics.Metrics,
) *notification.Dispatcher {
	return notification.NewDispatcher(mailer, configs, history, teachers, loggerParam.Logger, m, conf.Notifications.Location)
}

func newLocker(conf *core.Config, loggerParam JobsLoggerParam) notification.Locker {
	if conf.RedisAddress == "" {
		loggerParam.Logger.Info("no redis address configured: the notification lock is local to this process")
		return lock.NewLocal()
	}
	return lock.NewRedis(lock.NewRedisClient(conf.RedisAddress), strings.ToLower(conf.AppName)+":")
}

func newJob(p jobParams) *notification.Job {
	return notification.NewJob(notification.JobDeps{
		Slots:          p.Schedules,
		Records:        p.Attendance,
		Administrators: p.Administrators,
		Configs:        p.Configs,
		Dispatcher:     p.Dispatcher,
		Watermarks:     p.Watermarks,
		Locker:         p.Locker,
		Logger:         p.Logger,
		Metrics:        p.Metrics,
		Location:       p.Conf.Notifications.Location,
		Now:            time.Now,
	})
}

func newScheduler(conf *core.Config, loggerParam JobsLoggerParam) *scheduler.Scheduler {
	return scheduler.New(conf.Notifications.Location, loggerParam.Logger)
}

func newMetrics(conf *core.Config) (*metrics.Metrics, prometheus.Gatherer) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics.New(reg, strings.ToLower(conf.AppName)), reg
}

func newValidator() *validator.Validate {
	return validator.New()
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newServerOptions(conf *core.Config) echoapi.Options {
	return echoapi.Options{
		Address:          conf.Server.Address,
		Debug:            conf.Debug,
		DisableReqLogs:   conf.TestMode,
		CORSAllowOrigins: conf.Server.CORSAllowOrigins,
		LoginRateLimit:   conf.Server.LoginRateLimit,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(provideConfig))

	// loggers
	must(c.Provide(newRollbarLogger))
	must(c.Provide(namedLogger("api")))
	must(c.Provide(namedLogger("db"), dig.Name("dbLogger")))
	must(c.Provide(namedLogger("jobs"), dig.Name("jobsLogger")))
	must(c.Provide(namedLogger("mail"), dig.Name("mailLogger")))

	// storage
	must(c.Provide(newStores))

	// services
	must(c.Provide(newDirectory))
	must(c.Provide(teacher.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(administrator.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(newCourseService))
	must(c.Provide(newScheduleService))
	must(c.Provide(newAttendanceService))
	must(c.Provide(notification.NewConfigService))
	must(c.Provide(newHistoryService))
	must(c.Provide(newEmailService))
	must(c.Provide(newMetrics))
	must(c.Provide(newDispatcher))
	must(c.Provide(newLocker))
	must(c.Provide(newJob))
	must(c.Provide(newScheduler))

	// API
	must(c.Provide(newValidator))
	must(c.Provide(newTranslator))
	must(c.Provide(newServerOptions))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
