package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/notification"
)

type (
	EmailRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ManualNotificationRequest struct {
		TeacherID string              `json:"teacher_id" validate:"required"`
		Reason    notification.Reason `json:"reason" validate:"omitempty,oneof=absence unrecorded"`
		Message   string              `json:"message"`
	}

	TransportStatus struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
)

func (r *EmailRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *ManualNotificationRequest) Validate(validate *validator.Validate) error {
	r.TeacherID = core.CleanString(r.TeacherID)
	r.Message = core.CleanString(r.Message)
	return validate.Struct(r)
}

type notificationApi struct {
	configs    *notification.ConfigService
	history    *notification.HistoryService
	dispatcher *notification.Dispatcher
	job        *notification.Job
	validate   *validator.Validate
}

func registerNotificationAPI(g *echo.Group, api notificationApi) {
	g.GET("/mine", api.mine, teacherOnly)

	ag := g.Group("", adminOnly)
	ag.GET("/transport", api.transport)
	ag.POST("/test-email", api.testEmail)
	ag.POST("/run-check", api.runCheck)
	ag.POST("/send", api.send)
	ag.GET("/history", api.query)
	ag.GET("/stats", api.stats)
	ag.GET("/recent", api.recent)
	ag.GET("/today", api.today)

	cg := ag.Group("/config")
	cg.GET("", api.activeConfig)
	cg.GET("/all", api.listConfigs)
	cg.POST("", api.createConfig)
	cg.GET("/:id", api.retrieveConfig)
	cg.PUT("/:id", api.updateConfig)
	cg.DELETE("/:id", api.destroyConfig)
	cg.POST("/:id/activate", api.activateConfig)
}

// Delivery

func (api *notificationApi) transport(ctx echo.Context) error {
	if err := api.dispatcher.VerifyTransport(); err != nil {
		ctx.Logger().Warnf("mail transport check failed: %v", err)
		return ctx.JSON(http.StatusOK, TransportStatus{Message: "mail transport is not reachable: " + errors.Cause(err).Error()})
	}
	return ctx.JSON(http.StatusOK, TransportStatus{Valid: true, Message: "mail transport is ready"})
}

func (api *notificationApi) testEmail(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.dispatcher.SendTest(data.Email); err != nil {
		return ctx.JSON(http.StatusOK, notification.ManualResult{Message: "error sending test email: " + errors.Cause(err).Error()})
	}
	return ctx.JSON(http.StatusOK, notification.ManualResult{Success: true, Message: "test email sent to " + data.Email})
}

func (api *notificationApi) runCheck(ctx echo.Context) error {
	report, err := api.job.RunCheck(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "running check")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *notificationApi) send(ctx echo.Context) error {
	var data ManualNotificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ManualNotificationRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res := api.dispatcher.SendManual(ctx.Request().Context(), data.TeacherID, data.Reason, data.Message)
	return ctx.JSON(http.StatusOK, res)
}

// History

func (api *notificationApi) query(ctx echo.Context) error {
	var filter notification.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to notification.Filter")
	}
	if err := api.history.ParseDayRange(&filter, ctx.QueryParam("from"), ctx.QueryParam("to")); err != nil {
		return err
	}

	entries, err := api.history.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying history")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *notificationApi) stats(ctx echo.Context) error {
	st, err := api.history.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting history stats")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *notificationApi) recent(ctx echo.Context) error {
	var limit int
	if s := ctx.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return core.NewValidationError(nil, core.FieldError{Field: "limit", Error: "limit must be a positive integer"})
		}
		limit = n
	}

	entries, err := api.history.Recent(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "getting recent history")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *notificationApi) today(ctx echo.Context) error {
	entries, err := api.history.Today(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting today's history")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *notificationApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	entries, err := api.history.ForTeacher(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting teacher history")
	}
	return ctx.JSON(http.StatusOK, entries)
}

// Configuration

func (api *notificationApi) activeConfig(ctx echo.Context) error {
	conf, err := api.configs.Active(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting active config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *notificationApi) listConfigs(ctx echo.Context) error {
	confs, err := api.configs.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing configs")
	}
	return ctx.JSON(http.StatusOK, confs)
}

func (api *notificationApi) createConfig(ctx echo.Context) error {
	var data notification.NewConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewConfig")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.configs.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating config")
	}
	return ctx.JSON(http.StatusCreated, conf)
}

func (api *notificationApi) retrieveConfig(ctx echo.Context) error {
	conf, err := api.configs.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *notificationApi) updateConfig(ctx echo.Context) error {
	var data notification.UpdateConfig
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateConfig")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.configs.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *notificationApi) activateConfig(ctx echo.Context) error {
	conf, err := api.configs.Activate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "activating config")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *notificationApi) destroyConfig(ctx echo.Context) error {
	if err := api.configs.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting config")
	}
	return ctx.NoContent(http.StatusNoContent)
}
