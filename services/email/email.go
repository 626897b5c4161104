package emailsvc

import (
	"github.com/uniasistencia/backend/core"
)

// Backends.
const (
	BackendConsole  = "console"
	BackendSMTP     = "smtp"
	BackendSendgrid = "sendgrid"
)

// New returns the EmailService selected by conf.EmailBackend.
func New(conf *core.Config, logger core.Logger) core.EmailService {
	switch conf.EmailBackend {
	case BackendSMTP:
		return NewSMTPService(conf, logger)
	case BackendSendgrid:
		return NewSendgridService(conf, logger)
	default:
		return NewConsoleService(conf, logger)
	}
}
