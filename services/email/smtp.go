package emailsvc

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
)

type smtpService struct {
	host       string
	port       int
	user       string
	password   string
	from       mail.Address
	subjPrefix string
	logger     core.Logger
}

var _ core.EmailService = (*smtpService)(nil)

// NewSMTPService sends through an SMTP relay, upgrading to TLS when offered.
func NewSMTPService(conf *core.Config, logger core.Logger) core.EmailService {
	return &smtpService{
		host:       conf.SMTP.Host,
		port:       conf.SMTP.Port,
		user:       conf.SMTP.User,
		password:   conf.SMTP.Password,
		from:       conf.DefaultFromEmail,
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
	}
}

func (svc *smtpService) addr() string {
	return net.JoinHostPort(svc.host, strconv.Itoa(svc.port))
}

// dial opens an authenticated session.
func (svc *smtpService) dial() (*smtp.Client, error) {
	c, err := smtp.Dial(svc.addr())
	if err != nil {
		return nil, errors.Wrap(err, "connecting to smtp server")
	}
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: svc.host}); err != nil {
			_ = c.Close()
			return nil, errors.Wrap(err, "starting tls")
		}
	}
	if svc.user != "" {
		if err := c.Auth(smtp.PlainAuth("", svc.user, svc.password, svc.host)); err != nil {
			_ = c.Close()
			return nil, errors.Wrap(err, "authenticating")
		}
	}
	return c, nil
}

func (svc *smtpService) Verify() error {
	c, err := svc.dial()
	if err != nil {
		return err
	}
	return errors.Wrap(c.Quit(), "closing smtp session")
}

func (svc *smtpService) SendMessage(msg *core.EmailMessage) error {
	ok, err := prepare(msg)
	if err != nil || !ok {
		return err
	}
	body, err := buildMIME(svc.from, svc.subjPrefix+msg.Subject, msg)
	if err != nil {
		return err
	}

	c, err := svc.dial()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Mail(svc.from.Address); err != nil {
		return errors.Wrap(err, "setting sender")
	}
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "adding recipient %s", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "opening data")
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return errors.Wrap(err, "writing message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "closing data")
	}
	return errors.Wrap(c.Quit(), "closing smtp session")
}

func (svc *smtpService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := svc.SendMessage(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}()
	}
}
