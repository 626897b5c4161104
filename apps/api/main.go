package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	dig_container "github.com/uniasistencia/backend/apps/api/di/dig"
	echoapi "github.com/uniasistencia/backend/apps/api/echo"
	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/teacher"
	logsvc "github.com/uniasistencia/backend/services/logger"
	"github.com/uniasistencia/backend/services/scheduler"
)

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		rootLogger *logsvc.RollbarLogger,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		closeDB dig_container.CloseDB,
		validate *validator.Validate,
		translator ut.Translator,
		job *notification.Job,
		sched *scheduler.Scheduler,
		server *echoapi.Server,
	) {
		defer rootLogger.Sync()

		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.InitValidators(validate, translator)
		account.InitValidators(validate, translator)
		teacher.InitValidators(validate, translator)
		administrator.InitValidators(validate, translator)
		schedule.InitValidators(validate, translator)

		dbLogger := dbLoggerParam.Logger
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
			defer cancel()
			if err := closeDB(ctx); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Notification Job

		jobCtx, cancelJobs := context.WithCancel(context.Background())
		defer cancelJobs()

		if conf.Notifications.Enabled {
			if err := sched.Add(jobCtx, "attendance-check", conf.Notifications.CronSpec, job.Tick); err != nil {
				apiLogger.Fatal(fmt.Sprintf("scheduling notification job: %v", err), err)
			}
			sched.Start()
			apiLogger.Info(fmt.Sprintf("notification job scheduled: %q in %s", conf.Notifications.CronSpec, conf.Notifications.Location))
		}

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		}

		// give outstanding requests and running checks a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		cancelJobs()
		if err := sched.Stop(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop scheduler gracefully: %v", err), err)
		}

		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
