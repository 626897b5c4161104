package notification

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/teacher"
)

// Audience is who a notification is addressed to.
type Audience string

const (
	AudienceTeacher       Audience = "teacher"
	AudienceAdministrator Audience = "administrator"
	AudienceExtra         Audience = "extra"
)

// Incident describes one class that needs attention.
type Incident struct {
	TeacherID    string
	TeacherName  string
	TeacherEmail string
	CourseID     string
	CourseName   string
	ClassDate    time.Time
	Reason       Reason
	Message      string // optional free text appended to the body
}

// Delivery is the result of one dispatch attempt.
type Delivery struct {
	Outcome Outcome
	Err     error
}

// ManualResult is reported to the caller of a manual send.
type ManualResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Metrics observes dispatches and job checks.
type Metrics interface {
	Dispatched(audience Audience, outcome Outcome)
	CheckRan(kind CheckKind, flagged int)
}

type nopMetrics struct{}

func (nopMetrics) Dispatched(Audience, Outcome) {}
func (nopMetrics) CheckRan(CheckKind, int)      {}

type Teachers interface {
	Get(ctx context.Context, id string) (teacher.Teacher, error)
}

// Dispatcher renders, sends and records notifications. Its sends never fail the
// caller: every failure ends up in the history log.
type Dispatcher struct {
	mailer   core.EmailService
	configs  *ConfigService
	history  *HistoryService
	teachers Teachers
	logger   core.Logger
	metrics  Metrics
	loc      *time.Location
	nowFunc  func() time.Time
}

func NewDispatcher(
	mailer core.EmailService,
	configs *ConfigService,
	history *HistoryService,
	teachers Teachers,
	logger core.Logger,
	metrics Metrics,
	loc *time.Location,
) *Dispatcher {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		mailer:   mailer,
		configs:  configs,
		history:  history,
		teachers: teachers,
		logger:   logger,
		metrics:  metrics,
		loc:      loc,
		nowFunc:  time.Now,
	}
}

// activeConfig never fails; defaults are used when the store is unavailable.
func (d *Dispatcher) activeConfig(ctx context.Context) Config {
	conf, err := d.configs.Active(ctx)
	if err != nil {
		d.logger.Error("loading notification config, using defaults", err)
		return DefaultConfig()
	}
	return conf
}

// NotifyTeacher emails the teacher of inc using the active configuration.
func (d *Dispatcher) NotifyTeacher(ctx context.Context, inc Incident) Delivery {
	return d.notifyTeacher(ctx, d.activeConfig(ctx), inc)
}

// NotifyAdministrator emails an administrator notice about inc to email.
func (d *Dispatcher) NotifyAdministrator(ctx context.Context, inc Incident, email string) Delivery {
	return d.notifyStaff(ctx, d.activeConfig(ctx), AudienceAdministrator, inc, email)
}

func (d *Dispatcher) notifyTeacher(ctx context.Context, conf Config, inc Incident) Delivery {
	if !conf.SendToTeachers {
		d.logger.Debug(fmt.Sprintf("teacher notifications disabled, skipping %s", inc.TeacherEmail))
		return d.skipped(AudienceTeacher)
	}
	return d.send(ctx, AudienceTeacher, conf.TeacherSubject, conf.TeacherTemplate, inc, inc.TeacherEmail)
}

func (d *Dispatcher) notifyStaff(ctx context.Context, conf Config, audience Audience, inc Incident, email string) Delivery {
	enabled := conf.SendToAdministrators
	if audience == AudienceExtra {
		enabled = conf.SendToExtraRecipients
	}
	if !enabled {
		d.logger.Debug(fmt.Sprintf("%s notifications disabled, skipping %s", audience, email))
		return d.skipped(audience)
	}
	return d.send(ctx, audience, conf.AdministratorSubject, conf.AdministratorTemplate, inc, email)
}

func (d *Dispatcher) skipped(audience Audience) Delivery {
	d.metrics.Dispatched(audience, OutcomeSkipped)
	return Delivery{Outcome: OutcomeSkipped}
}

func (d *Dispatcher) send(ctx context.Context, audience Audience, subject, body string, inc Incident, email string) Delivery {
	vars := templateVars(inc, d.loc)
	html := ReplaceVars(body, vars, true)
	if inc.Message != "" {
		html = appendMessage(html, inc.Message)
	}
	msg := &core.EmailMessage{
		To:          []mail.Address{{Address: email}},
		Subject:     ReplaceVars(subject, vars, false),
		HTMLContent: html,
	}
	if audience == AudienceTeacher {
		msg.To[0].Name = inc.TeacherName
	}

	entry := LogEntry{
		Kind:                KindNotification,
		TeacherID:           optionalRef(inc.TeacherID),
		CourseID:            optionalRef(inc.CourseID),
		RecipientEmail:      email,
		TeacherName:         inc.TeacherName,
		CourseName:          inc.CourseName,
		ClassDate:           inc.ClassDate,
		Reason:              inc.Reason,
		Outcome:             OutcomeSent,
		AdministratorNotice: audience != AudienceTeacher,
	}
	err := d.mailer.SendMessage(msg)
	if err != nil {
		entry.Outcome = OutcomeError
		entry.ErrorMessage = err.Error()
		d.logger.Error(fmt.Sprintf("sending %s notification to %s", audience, email), err)
	} else {
		d.logger.Info(fmt.Sprintf("%s notification sent to %s", audience, email))
	}
	if _, herr := d.history.Record(ctx, entry); herr != nil {
		d.logger.Error("recording notification history", herr)
	}
	d.metrics.Dispatched(audience, entry.Outcome)
	return Delivery{Outcome: entry.Outcome, Err: err}
}

// VerifyTransport checks that the mail transport accepts connections.
func (d *Dispatcher) VerifyTransport() error {
	return errors.Wrap(d.mailer.Verify(), "verifying mail transport")
}

// SendTest sends the embedded test email to email.
func (d *Dispatcher) SendTest(email string) error {
	err := d.mailer.SendMessage(&core.EmailMessage{
		To:           []mail.Address{{Address: email}},
		Subject:      "Prueba de correo - Sistema de Gestión Universitaria",
		TemplateName: "test",
		TemplateData: map[string]interface{}{"SentAt": LongDate(d.nowFunc().In(d.loc))},
	})
	return errors.Wrap(err, "sending test email")
}

// SendManual notifies a teacher on demand about reason. Failures are reported
// in the result, never as an error.
func (d *Dispatcher) SendManual(ctx context.Context, teacherID string, reason Reason, message string) ManualResult {
	t, err := d.teachers.Get(ctx, teacherID)
	if err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			err = errors.Errorf("teacher %s not found", teacherID)
		}
		return ManualResult{Message: "error sending manual notification: " + err.Error()}
	}
	if !reason.Valid() {
		reason = ReasonAbsence
	}
	delivery := d.NotifyTeacher(ctx, Incident{
		TeacherID:    t.ID,
		TeacherName:  t.Name,
		TeacherEmail: t.Email,
		CourseName:   "Clase del docente",
		ClassDate:    d.nowFunc(),
		Reason:       reason,
		Message:      message,
	})
	switch delivery.Outcome {
	case OutcomeSent:
		return ManualResult{Success: true, Message: "notification sent to " + t.Email}
	case OutcomeSkipped:
		return ManualResult{Message: "teacher notifications are disabled"}
	default:
		return ManualResult{Message: "error sending manual notification: " + delivery.Err.Error()}
	}
}
