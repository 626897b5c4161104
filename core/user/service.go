package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

var ErrNotFound = core.NewNotFoundError("user")

// roleStore serves the accounts of one role.
type roleStore interface {
	create(ctx context.Context, na NewAccount) (Account, error)
	list(ctx context.Context) ([]Account, error)
	get(ctx context.Context, id string) (Account, error)
	getByEmail(ctx context.Context, email string) (Account, error)
	update(ctx context.Context, id string, ua UpdateAccount) (Account, error)
	delete(ctx context.Context, id string) error
}

// Service routes account operations to the store of each role.
type Service struct {
	stores   map[account.Role]roleStore
	teachers *teacher.Service
}

func NewService(teachers *teacher.Service, students *student.Service, administrators *administrator.Service) *Service {
	return &Service{
		stores: map[account.Role]roleStore{
			account.RoleTeacher:       teacherStore{teachers},
			account.RoleStudent:       studentStore{students},
			account.RoleAdministrator: administratorStore{administrators},
		},
		teachers: teachers,
	}
}

func (svc *Service) store(role account.Role) (roleStore, error) {
	store, ok := svc.stores[role]
	if !ok {
		_, err := account.ParseRole(role.String())
		return nil, err
	}
	return store, nil
}

// Create stores a new account of na.Role; na must be validated.
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	store, err := svc.store(account.Role(na.Role))
	if err != nil {
		return Account{}, err
	}
	return store.create(ctx, na)
}

func (svc *Service) ListByRole(ctx context.Context, role account.Role) ([]Account, error) {
	store, err := svc.store(role)
	if err != nil {
		return nil, err
	}
	return store.list(ctx)
}

func (svc *Service) Get(ctx context.Context, role account.Role, id string) (Account, error) {
	store, err := svc.store(role)
	if err != nil {
		return Account{}, err
	}
	return store.get(ctx, id)
}

// FindByEmail searches administrators, then teachers, then students.
func (svc *Service) FindByEmail(ctx context.Context, email string) (Account, error) {
	email = core.CleanString(email, true /* lower */)
	for _, role := range account.Roles {
		acc, err := svc.stores[role].getByEmail(ctx, email)
		if err == nil {
			return acc, nil
		}
		if !core.IsNotFound(err) {
			return Account{}, err
		}
	}
	return Account{}, ErrNotFound
}

func (svc *Service) Update(ctx context.Context, role account.Role, id string, ua UpdateAccount) (Account, error) {
	store, err := svc.store(role)
	if err != nil {
		return Account{}, err
	}
	return store.update(ctx, id, ua)
}

func (svc *Service) Delete(ctx context.Context, role account.Role, id string) error {
	store, err := svc.store(role)
	if err != nil {
		return err
	}
	return store.delete(ctx, id)
}

// Authenticate checks email and password against administrators, then teachers.
func (svc *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	email = core.CleanString(email, true /* lower */)
	for _, role := range []account.Role{account.RoleAdministrator, account.RoleTeacher} {
		acc, err := svc.stores[role].getByEmail(ctx, email)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return Account{}, errors.Wrap(err, "looking up credentials")
		}
		if !acc.Active() || acc.checkPassword(password) != nil {
			return Account{}, core.ErrUnauthorized
		}
		return acc, nil
	}
	return Account{}, core.ErrUnauthorized
}

// Register signs up a teacher; data must be validated.
func (svc *Service) Register(ctx context.Context, data teacher.NewTeacher) (Account, error) {
	t, err := svc.teachers.Create(ctx, data)
	if err != nil {
		return Account{}, err
	}
	return teacherAccount(t), nil
}

type teacherStore struct{ svc *teacher.Service }

func (s teacherStore) create(ctx context.Context, na NewAccount) (Account, error) {
	t, err := s.svc.Create(ctx, na.teacher())
	return teacherAccount(t), err
}

func (s teacherStore) list(ctx context.Context) ([]Account, error) {
	teachers, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(teachers))
	for _, t := range teachers {
		accounts = append(accounts, teacherAccount(t))
	}
	return accounts, nil
}

func (s teacherStore) get(ctx context.Context, id string) (Account, error) {
	t, err := s.svc.Get(ctx, id)
	return teacherAccount(t), err
}

func (s teacherStore) getByEmail(ctx context.Context, email string) (Account, error) {
	t, err := s.svc.GetByEmail(ctx, email)
	return teacherAccount(t), err
}

func (s teacherStore) update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	t, err := s.svc.Update(ctx, id, ua.teacher())
	return teacherAccount(t), err
}

func (s teacherStore) delete(ctx context.Context, id string) error { return s.svc.Delete(ctx, id) }

type studentStore struct{ svc *student.Service }

func (s studentStore) create(ctx context.Context, na NewAccount) (Account, error) {
	st, err := s.svc.Create(ctx, na.student())
	return studentAccount(st), err
}

func (s studentStore) list(ctx context.Context) ([]Account, error) {
	students, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(students))
	for _, st := range students {
		accounts = append(accounts, studentAccount(st))
	}
	return accounts, nil
}

func (s studentStore) get(ctx context.Context, id string) (Account, error) {
	st, err := s.svc.Get(ctx, id)
	return studentAccount(st), err
}

func (s studentStore) getByEmail(ctx context.Context, email string) (Account, error) {
	st, err := s.svc.GetByEmail(ctx, email)
	return studentAccount(st), err
}

func (s studentStore) update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	st, err := s.svc.Update(ctx, id, ua.student())
	return studentAccount(st), err
}

func (s studentStore) delete(ctx context.Context, id string) error { return s.svc.Delete(ctx, id) }

type administratorStore struct{ svc *administrator.Service }

func (s administratorStore) create(ctx context.Context, na NewAccount) (Account, error) {
	a, err := s.svc.Create(ctx, na.administrator())
	return administratorAccount(a), err
}

func (s administratorStore) list(ctx context.Context) ([]Account, error) {
	admins, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(admins))
	for _, a := range admins {
		accounts = append(accounts, administratorAccount(a))
	}
	return accounts, nil
}

func (s administratorStore) get(ctx context.Context, id string) (Account, error) {
	a, err := s.svc.Get(ctx, id)
	return administratorAccount(a), err
}

func (s administratorStore) getByEmail(ctx context.Context, email string) (Account, error) {
	a, err := s.svc.GetByEmail(ctx, email)
	return administratorAccount(a), err
}

func (s administratorStore) update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	a, err := s.svc.Update(ctx, id, ua.administrator())
	return administratorAccount(a), err
}

func (s administratorStore) delete(ctx context.Context, id string) error { return s.svc.Delete(ctx, id) }
