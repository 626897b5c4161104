package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"sync"

	"github.com/uniasistencia/backend/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool
	logger           core.Logger
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints emails to the standard logger instead of sending them.
func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		logger:           logger,
	}
}

func (svc *consoleService) SendMessage(msg *core.EmailMessage) error {
	ok, err := prepare(msg)
	if err != nil || !ok {
		return err
	}
	return svc.send(msg)
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := svc.SendMessage(msg); err != nil {
				svc.logger.Error(fmt.Sprintf("sending email: %v", err), err)
			}
		}()
	}
}

func (svc *consoleService) Verify() error { return nil }

func (svc *consoleService) send(msg *core.EmailMessage) error {
	body, err := buildMIME(svc.defaultFromEmail, svc.subjPrefix+msg.Subject, msg)
	if err != nil {
		return err
	}
	if !svc.disableOutput {
		log.Println(body)
	}
	return nil
}

// ConsoleServiceMock records sent messages instead of printing them. It sends synchronously.
type ConsoleServiceMock struct {
	consoleService
	mu       sync.Mutex
	sent     []core.EmailMessage
	failWith error
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			defaultFromEmail: conf.DefaultFromEmail,
			subjPrefix:       "[" + conf.AppName + "] ",
			disableOutput:    true,
			logger:           core.NopLogger{},
		},
	}
}

func (svc *ConsoleServiceMock) SendMessage(msg *core.EmailMessage) error {
	svc.mu.Lock()
	failWith := svc.failWith
	svc.mu.Unlock()
	if failWith != nil {
		return failWith
	}

	if err := svc.consoleService.SendMessage(msg); err != nil {
		return err
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()
	return nil
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		_ = svc.SendMessage(msg)
	}
}

func (svc *ConsoleServiceMock) Verify() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.failWith
}

// FailWith makes every following send fail with err; nil restores sending.
func (svc *ConsoleServiceMock) FailWith(err error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.failWith = err
}

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}

func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
	svc.failWith = nil
}
