package student

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
)

var ErrNotFound = core.NewNotFoundError("student")

type Repository interface {
	account.EmailChecker
	StudentNumberExists(ctx context.Context, number, excludeID string) (bool, error)
	Create(ctx context.Context, s Student) (Student, error)
	List(ctx context.Context) ([]Student, error)
	Get(ctx context.Context, id string) (Student, error)
	GetByEmail(ctx context.Context, email string) (Student, error)
	Update(ctx context.Context, s Student) (Student, error)
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

func (svc *Service) checkUniqueness(ctx context.Context, number, email, excludeID string) error {
	if number != "" {
		exists, err := svc.repo.StudentNumberExists(ctx, number, excludeID)
		if err != nil {
			return errors.Wrap(err, "checking student number uniqueness")
		}
		if exists {
			return core.NewConflictError("student_number", number)
		}
	}
	if email != "" {
		return svc.dir.CheckEmail(ctx, email, excludeID)
	}
	return nil
}

// Create stores a new student; data must be validated.
func (svc *Service) Create(ctx context.Context, data NewStudent) (Student, error) {
	if err := svc.checkUniqueness(ctx, data.StudentNumber, data.Email, ""); err != nil {
		return Student{}, err
	}

	now := svc.nowFunc().UTC()
	s, err := svc.repo.Create(ctx, Student{
		Name:          data.Name,
		StudentNumber: data.StudentNumber,
		Email:         data.Email,
		Career:        data.Career,
		Semester:      data.Semester,
		Phone:         data.Phone,
		Active:        data.Active == nil || *data.Active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return s, errors.Wrap(err, "creating student")
}

func (svc *Service) List(ctx context.Context) ([]Student, error) {
	students, err := svc.repo.List(ctx)
	return students, errors.Wrap(err, "listing students")
}

func (svc *Service) Get(ctx context.Context, id string) (Student, error) {
	s, err := svc.repo.Get(ctx, id)
	return s, errors.Wrap(err, "getting student")
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Student, error) {
	s, err := svc.repo.GetByEmail(ctx, core.CleanString(email, true))
	return s, errors.Wrap(err, "getting student by email")
}

func (svc *Service) Update(ctx context.Context, id string, data UpdateStudent) (Student, error) {
	s, err := svc.repo.Get(ctx, id)
	if err != nil {
		return Student{}, errors.Wrap(err, "getting student")
	}

	var number, email string
	if data.StudentNumber != nil && *data.StudentNumber != s.StudentNumber {
		number = *data.StudentNumber
	}
	if data.Email != nil && *data.Email != s.Email {
		email = *data.Email
	}
	if err := svc.checkUniqueness(ctx, number, email, s.ID); err != nil {
		return Student{}, err
	}

	if data.Name != nil {
		s.Name = *data.Name
	}
	if data.StudentNumber != nil {
		s.StudentNumber = *data.StudentNumber
	}
	if data.Email != nil {
		s.Email = *data.Email
	}
	if data.Career != nil {
		s.Career = *data.Career
	}
	if data.Semester != nil {
		s.Semester = *data.Semester
	}
	if data.Phone != nil {
		s.Phone = *data.Phone
	}
	if data.Active != nil {
		s.Active = *data.Active
	}
	s.UpdatedAt = svc.nowFunc().UTC()

	s, err = svc.repo.Update(ctx, s)
	return s, errors.Wrap(err, "updating student")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.repo.Delete(ctx, id), "deleting student")
}
