package teacher

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

var ErrNotFound = core.NewNotFoundError("teacher")

type Repository interface {
	account.EmailChecker
	NationalIDExists(ctx context.Context, nationalID, excludeID string) (bool, error)
	Create(ctx context.Context, t Teacher) (Teacher, error)
	List(ctx context.Context) ([]Teacher, error)
	Get(ctx context.Context, id string) (Teacher, error)
	GetByEmail(ctx context.Context, email string) (Teacher, error)
	Update(ctx context.Context, t Teacher) (Teacher, error)
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

func (svc *Service) checkUniqueness(ctx context.Context, nationalID, email, excludeID string) error {
	if nationalID != "" {
		exists, err := svc.repo.NationalIDExists(ctx, nationalID, excludeID)
		if err != nil {
			return errors.Wrap(err, "checking national id uniqueness")
		}
		if exists {
			return core.NewConflictError("national_id", nationalID)
		}
	}
	if email != "" {
		return svc.dir.CheckEmail(ctx, email, excludeID)
	}
	return nil
}

// Create stores a new teacher; data must be validated.
func (svc *Service) Create(ctx context.Context, data NewTeacher) (Teacher, error) {
	if err := svc.checkUniqueness(ctx, data.NationalID, data.Email, ""); err != nil {
		return Teacher{}, err
	}

	now := svc.nowFunc().UTC()
	t := Teacher{
		NationalID: data.NationalID,
		Name:       data.Name,
		Email:      data.Email,
		Department: data.Department,
		Specialty:  data.Specialty,
		Phone:      data.Phone,
		Role:       account.RoleTeacher,
		Active:     data.Active == nil || *data.Active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := t.SetPassword(data.Password); err != nil {
		return Teacher{}, err
	}

	t, err := svc.repo.Create(ctx, t)
	return t, errors.Wrap(err, "creating teacher")
}

func (svc *Service) List(ctx context.Context) ([]Teacher, error) {
	teachers, err := svc.repo.List(ctx)
	return teachers, errors.Wrap(err, "listing teachers")
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, error) {
	t, err := svc.repo.Get(ctx, id)
	return t, errors.Wrap(err, "getting teacher")
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Teacher, error) {
	t, err := svc.repo.GetByEmail(ctx, core.CleanString(email, true))
	return t, errors.Wrap(err, "getting teacher by email")
}

// Update applies the set fields of data; changed unique fields are re-checked
// and a new password is re-hashed.
func (svc *Service) Update(ctx context.Context, id string, data UpdateTeacher) (Teacher, error) {
	t, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "getting teacher")
	}

	var nationalID, email string
	if data.NationalID != nil && *data.NationalID != t.NationalID {
		nationalID = *data.NationalID
	}
	if data.Email != nil && *data.Email != t.Email {
		email = *data.Email
	}
	if err := svc.checkUniqueness(ctx, nationalID, email, t.ID); err != nil {
		return Teacher{}, err
	}

	if data.NationalID != nil {
		t.NationalID = *data.NationalID
	}
	if data.Name != nil {
		t.Name = *data.Name
	}
	if data.Email != nil {
		t.Email = *data.Email
	}
	if data.Department != nil {
		t.Department = *data.Department
	}
	if data.Specialty != nil {
		t.Specialty = *data.Specialty
	}
	if data.Phone != nil {
		t.Phone = *data.Phone
	}
	if data.Active != nil {
		t.Active = *data.Active
	}
	if data.Password != nil {
		if err := t.SetPassword(*data.Password); err != nil {
			return Teacher{}, err
		}
	}
	t.UpdatedAt = svc.nowFunc().UTC()

	t, err = svc.repo.Update(ctx, t)
	return t, errors.Wrap(err, "updating teacher")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting teacher")
}
