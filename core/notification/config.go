package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
)

var ErrConfigNotFound = core.NewNotFoundError("notification config")

const (
	DefaultPrimaryCheckTime = "20:00"
	DefaultEarlyCheckTime   = "09:00"
)

// Config drives the notification job and dispatcher. Only one row is active at a time.
type Config struct {
	ID                    string    `json:"id"`
	Active                bool      `json:"active"`
	Version               int64     `json:"version"`
	PrimaryCheckTime      string    `json:"primary_check_time"`
	EarlyCheckTime        string    `json:"early_check_time"`
	ExtraRecipients       []string  `json:"extra_recipients"`
	TeacherTemplate       string    `json:"teacher_template"`
	AdministratorTemplate string    `json:"administrator_template"`
	TeacherSubject        string    `json:"teacher_subject"`
	AdministratorSubject  string    `json:"administrator_subject"`
	SendToTeachers        bool      `json:"send_to_teachers"`
	SendToAdministrators  bool      `json:"send_to_administrators"`
	SendToExtraRecipients bool      `json:"send_to_extra_recipients"`
	Description           string    `json:"description,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// DefaultConfig is used when no configuration exists yet.
func DefaultConfig() Config {
	return Config{
		PrimaryCheckTime:      DefaultPrimaryCheckTime,
		EarlyCheckTime:        DefaultEarlyCheckTime,
		ExtraRecipients:       []string{},
		TeacherTemplate:       DefaultTeacherTemplate,
		AdministratorTemplate: DefaultAdministratorTemplate,
		TeacherSubject:        DefaultTeacherSubject,
		AdministratorSubject:  DefaultAdministratorSubject,
		SendToTeachers:        true,
		SendToAdministrators:  true,
		SendToExtraRecipients: true,
		Description:           "Configuración por defecto",
	}
}

type NewConfig struct {
	Active                *bool    `json:"active"`
	PrimaryCheckTime      string   `json:"primary_check_time" validate:"omitempty,hhmm"`
	EarlyCheckTime        string   `json:"early_check_time" validate:"omitempty,hhmm"`
	ExtraRecipients       []string `json:"extra_recipients" validate:"dive,email"`
	TeacherTemplate       string   `json:"teacher_template"`
	AdministratorTemplate string   `json:"administrator_template"`
	TeacherSubject        string   `json:"teacher_subject"`
	AdministratorSubject  string   `json:"administrator_subject"`
	SendToTeachers        *bool    `json:"send_to_teachers"`
	SendToAdministrators  *bool    `json:"send_to_administrators"`
	SendToExtraRecipients *bool    `json:"send_to_extra_recipients"`
	Description           string   `json:"description"`
}

func (nc *NewConfig) Validate(validate *validator.Validate) error {
	nc.PrimaryCheckTime = core.CleanString(nc.PrimaryCheckTime)
	nc.EarlyCheckTime = core.CleanString(nc.EarlyCheckTime)
	for i, r := range nc.ExtraRecipients {
		nc.ExtraRecipients[i] = core.CleanString(r, true)
	}
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateConfig only changes the fields that are set.
type UpdateConfig struct {
	Active                *bool     `json:"active"`
	PrimaryCheckTime      *string   `json:"primary_check_time" validate:"omitempty,hhmm"`
	EarlyCheckTime        *string   `json:"early_check_time" validate:"omitempty,hhmm"`
	ExtraRecipients       *[]string `json:"extra_recipients" validate:"omitempty,dive,email"`
	TeacherTemplate       *string   `json:"teacher_template" validate:"omitempty,min=1"`
	AdministratorTemplate *string   `json:"administrator_template" validate:"omitempty,min=1"`
	TeacherSubject        *string   `json:"teacher_subject" validate:"omitempty,min=1"`
	AdministratorSubject  *string   `json:"administrator_subject" validate:"omitempty,min=1"`
	SendToTeachers        *bool     `json:"send_to_teachers"`
	SendToAdministrators  *bool     `json:"send_to_administrators"`
	SendToExtraRecipients *bool     `json:"send_to_extra_recipients"`
	Description           *string   `json:"description"`
}

func (uc *UpdateConfig) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.PrimaryCheckTime, uc.EarlyCheckTime, uc.Description} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if uc.ExtraRecipients != nil {
		for i, r := range *uc.ExtraRecipients {
			(*uc.ExtraRecipients)[i] = core.CleanString(r, true)
		}
	}
	return validate.Struct(uc)
}

type ConfigRepository interface {
	Create(ctx context.Context, c Config) (Config, error)
	List(ctx context.Context) ([]Config, error)
	Get(ctx context.Context, id string) (Config, error)
	GetActive(ctx context.Context) (Config, error)
	Update(ctx context.Context, c Config) (Config, error)
	// Activate atomically deactivates every other row and activates id.
	Activate(ctx context.Context, id string) (Config, error)
	Delete(ctx context.Context, id string) error
}

type ConfigService struct {
	repo    ConfigRepository
	nowFunc func() time.Time
}

func NewConfigService(repo ConfigRepository) *ConfigService {
	return &ConfigService{repo: repo, nowFunc: time.Now}
}

// Active returns the active configuration, creating the default one when there is none.
func (svc *ConfigService) Active(ctx context.Context) (Config, error) {
	c, err := svc.repo.GetActive(ctx)
	if err == nil {
		return c, nil
	}
	if errors.Cause(err) != ErrConfigNotFound {
		return Config{}, errors.Wrap(err, "getting active config")
	}

	c = DefaultConfig()
	now := svc.nowFunc().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c, err = svc.repo.Create(ctx, c)
	if err != nil {
		return Config{}, errors.Wrap(err, "creating default config")
	}
	c, err = svc.repo.Activate(ctx, c.ID)
	return c, errors.Wrap(err, "activating default config")
}

// List returns every configuration, newest first.
func (svc *ConfigService) List(ctx context.Context) ([]Config, error) {
	configs, err := svc.repo.List(ctx)
	return configs, errors.Wrap(err, "listing configs")
}

func (svc *ConfigService) Get(ctx context.Context, id string) (Config, error) {
	c, err := svc.repo.Get(ctx, id)
	return c, errors.Wrap(err, "getting config")
}

// Create stores a new configuration, active unless data.Active is false.
func (svc *ConfigService) Create(ctx context.Context, data NewConfig) (Config, error) {
	c := DefaultConfig()
	c.Description = data.Description
	if data.PrimaryCheckTime != "" {
		c.PrimaryCheckTime = data.PrimaryCheckTime
	}
	if data.EarlyCheckTime != "" {
		c.EarlyCheckTime = data.EarlyCheckTime
	}
	if data.ExtraRecipients != nil {
		c.ExtraRecipients = data.ExtraRecipients
	}
	if data.TeacherTemplate != "" {
		c.TeacherTemplate = data.TeacherTemplate
	}
	if data.AdministratorTemplate != "" {
		c.AdministratorTemplate = data.AdministratorTemplate
	}
	if data.TeacherSubject != "" {
		c.TeacherSubject = data.TeacherSubject
	}
	if data.AdministratorSubject != "" {
		c.AdministratorSubject = data.AdministratorSubject
	}
	if data.SendToTeachers != nil {
		c.SendToTeachers = *data.SendToTeachers
	}
	if data.SendToAdministrators != nil {
		c.SendToAdministrators = *data.SendToAdministrators
	}
	if data.SendToExtraRecipients != nil {
		c.SendToExtraRecipients = *data.SendToExtraRecipients
	}
	now := svc.nowFunc().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Version = 1

	c, err := svc.repo.Create(ctx, c)
	if err != nil {
		return Config{}, errors.Wrap(err, "creating config")
	}
	if data.Active != nil && !*data.Active {
		return c, nil
	}
	c, err = svc.repo.Activate(ctx, c.ID)
	return c, errors.Wrap(err, "activating config")
}

// Update applies the set fields of data and bumps the version.
// Setting active to true swaps the active row atomically.
func (svc *ConfigService) Update(ctx context.Context, id string, data UpdateConfig) (Config, error) {
	c, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Config{}, errors.Wrap(err, "getting config")
	}
	if data.PrimaryCheckTime != nil {
		c.PrimaryCheckTime = *data.PrimaryCheckTime
	}
	if data.EarlyCheckTime != nil {
		c.EarlyCheckTime = *data.EarlyCheckTime
	}
	if data.ExtraRecipients != nil {
		c.ExtraRecipients = *data.ExtraRecipients
	}
	if data.TeacherTemplate != nil {
		c.TeacherTemplate = *data.TeacherTemplate
	}
	if data.AdministratorTemplate != nil {
		c.AdministratorTemplate = *data.AdministratorTemplate
	}
	if data.TeacherSubject != nil {
		c.TeacherSubject = *data.TeacherSubject
	}
	if data.AdministratorSubject != nil {
		c.AdministratorSubject = *data.AdministratorSubject
	}
	if data.SendToTeachers != nil {
		c.SendToTeachers = *data.SendToTeachers
	}
	if data.SendToAdministrators != nil {
		c.SendToAdministrators = *data.SendToAdministrators
	}
	if data.SendToExtraRecipients != nil {
		c.SendToExtraRecipients = *data.SendToExtraRecipients
	}
	if data.Description != nil {
		c.Description = *data.Description
	}
	activate := data.Active != nil && *data.Active && !c.Active
	if data.Active != nil && !*data.Active {
		c.Active = false
	}
	c.Version++
	c.UpdatedAt = svc.nowFunc().UTC()

	c, err = svc.repo.Update(ctx, c)
	if err != nil {
		return Config{}, errors.Wrap(err, "updating config")
	}
	if !activate {
		return c, nil
	}
	c, err = svc.repo.Activate(ctx, c.ID)
	return c, errors.Wrap(err, "activating config")
}

// Activate makes id the only active configuration.
func (svc *ConfigService) Activate(ctx context.Context, id string) (Config, error) {
	c, err := svc.repo.Activate(ctx, id)
	return c, errors.Wrap(err, fmt.Sprintf("activating config %s", id))
}

func (svc *ConfigService) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting config")
}
