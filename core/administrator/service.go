package administrator

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

var ErrNotFound = core.NewNotFoundError("administrator")

type Repository interface {
	account.EmailChecker
	Create(ctx context.Context, a Administrator) (Administrator, error)
	List(ctx context.Context, activeOnly bool) ([]Administrator, error)
	Get(ctx context.Context, id string) (Administrator, error)
	GetByEmail(ctx context.Context, email string) (Administrator, error)
	Update(ctx context.Context, a Administrator) (Administrator, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo    Repository
	dir     *account.Directory
	nowFunc func() time.Time
}

func NewService(repo Repository, dir *account.Directory) *Service {
	return &Service{repo: repo, dir: dir, nowFunc: time.Now}
}

// Create stores a new administrator; data must be validated.
func (svc *Service) Create(ctx context.Context, data NewAdministrator) (Administrator, error) {
	if err := svc.dir.CheckEmail(ctx, data.Email, ""); err != nil {
		return Administrator{}, err
	}

	now := svc.nowFunc().UTC()
	a := Administrator{
		Name:      data.Name,
		Email:     data.Email,
		Position:  data.Position,
		Phone:     data.Phone,
		Role:      account.RoleAdministrator,
		Active:    data.Active == nil || *data.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.SetPassword(data.Password); err != nil {
		return Administrator{}, err
	}

	a, err := svc.repo.Create(ctx, a)
	return a, errors.Wrap(err, "creating administrator")
}

func (svc *Service) List(ctx context.Context) ([]Administrator, error) {
	admins, err := svc.repo.List(ctx, false)
	return admins, errors.Wrap(err, "listing administrators")
}

// ListActive returns the administrators that receive incident notices.
func (svc *Service) ListActive(ctx context.Context) ([]Administrator, error) {
	admins, err := svc.repo.List(ctx, true)
	return admins, errors.Wrap(err, "listing active administrators")
}

func (svc *Service) Get(ctx context.Context, id string) (Administrator, error) {
	a, err := svc.repo.Get(ctx, id)
	return a, errors.Wrap(err, "getting administrator")
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Administrator, error) {
	a, err := svc.repo.GetByEmail(ctx, core.CleanString(email, true))
	return a, errors.Wrap(err, "getting administrator by email")
}

func (svc *Service) Update(ctx context.Context, id string, data UpdateAdministrator) (Administrator, error) {
	a, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Administrator{}, errors.Wrap(err, "getting administrator")
	}
	if data.Email != nil && *data.Email != a.Email {
		if err := svc.dir.CheckEmail(ctx, *data.Email, a.ID); err != nil {
			return Administrator{}, err
		}
		a.Email = *data.Email
	}
	if data.Name != nil {
		a.Name = *data.Name
	}
	if data.Position != nil {
		a.Position = *data.Position
	}
	if data.Phone != nil {
		a.Phone = *data.Phone
	}
	if data.Active != nil {
		a.Active = *data.Active
	}
	if data.Password != nil {
		if err := a.SetPassword(*data.Password); err != nil {
			return Administrator{}, err
		}
	}
	a.UpdatedAt = svc.nowFunc().UTC()

	a, err = svc.repo.Update(ctx, a)
	return a, errors.Wrap(err, "updating administrator")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting administrator")
}
