package echoapi

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/notification"
)

type WelcomeEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func (r *WelcomeEmailRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Name = core.CleanString(r.Name)
	return validate.Struct(r)
}

type mailApi struct {
	svc      core.EmailService
	validate *validator.Validate
}

func registerMailAPI(g *echo.Group, svc core.EmailService, validate *validator.Validate) {
	api := mailApi{svc: svc, validate: validate}

	g.POST("/test", api.test)
	g.POST("/welcome", api.welcome)
}

func (api *mailApi) test(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.SendMessage(&core.EmailMessage{
		To:           []mail.Address{{Address: data.Email}},
		Subject:      "Prueba de correo",
		TemplateName: "test",
		TemplateData: map[string]interface{}{"SentAt": notification.LongDate(time.Now())},
	})
	if err != nil {
		return errors.Wrap(err, "sending test email")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "test email sent to " + data.Email})
}

func (api *mailApi) welcome(ctx echo.Context) error {
	var data WelcomeEmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WelcomeEmailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	err := api.svc.SendMessage(&core.EmailMessage{
		To:           []mail.Address{{Name: data.Name, Address: data.Email}},
		Subject:      "Bienvenido a " + core.Conf.AppName,
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Name": data.Name, "Email": data.Email},
	})
	if err != nil {
		return errors.Wrap(err, "sending welcome email")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "welcome email sent to " + data.Email})
}
