package inmemdb

import (
	"context"

	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

type teacherRepository struct {
	db *table[teacher.Teacher]
}

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teachers}
}

func (repo *teacherRepository) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	return repo.db.exists(func(t teacher.Teacher) bool { return t.Email == email && t.ID != excludeID }), nil
}

func (repo *teacherRepository) NationalIDExists(_ context.Context, nationalID, excludeID string) (bool, error) {
	return repo.db.exists(func(t teacher.Teacher) bool { return t.NationalID == nationalID && t.ID != excludeID }), nil
}

func (repo *teacherRepository) Create(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	t.ID = newID()
	repo.db.insert(t.ID, t)
	return t, nil
}

func (repo *teacherRepository) List(context.Context) ([]teacher.Teacher, error) {
	return repo.db.filter(nil), nil
}

func (repo *teacherRepository) Get(_ context.Context, id string) (teacher.Teacher, error) {
	if t, ok := repo.db.get(id); ok {
		return t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetByEmail(_ context.Context, email string) (teacher.Teacher, error) {
	if found := repo.db.filter(func(t teacher.Teacher) bool { return t.Email == email }); len(found) > 0 {
		return found[0], nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) Update(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if !repo.db.put(t.ID, t) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return t, nil
}

func (repo *teacherRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return teacher.ErrNotFound
	}
	return nil
}

type studentRepository struct {
	db *table[student.Student]
}

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.students}
}

func (repo *studentRepository) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	return repo.db.exists(func(s student.Student) bool { return s.Email == email && s.ID != excludeID }), nil
}

func (repo *studentRepository) StudentNumberExists(_ context.Context, number, excludeID string) (bool, error) {
	return repo.db.exists(func(s student.Student) bool { return s.StudentNumber == number && s.ID != excludeID }), nil
}

func (repo *studentRepository) Create(_ context.Context, s student.Student) (student.Student, error) {
	s.ID = newID()
	repo.db.insert(s.ID, s)
	return s, nil
}

func (repo *studentRepository) List(context.Context) ([]student.Student, error) {
	return repo.db.filter(nil), nil
}

func (repo *studentRepository) Get(_ context.Context, id string) (student.Student, error) {
	if s, ok := repo.db.get(id); ok {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetByEmail(_ context.Context, email string) (student.Student, error) {
	if found := repo.db.filter(func(s student.Student) bool { return s.Email == email }); len(found) > 0 {
		return found[0], nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) Update(_ context.Context, s student.Student) (student.Student, error) {
	if !repo.db.put(s.ID, s) {
		return student.Student{}, student.ErrNotFound
	}
	return s, nil
}

func (repo *studentRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return student.ErrNotFound
	}
	return nil
}

type administratorRepository struct {
	db *table[administrator.Administrator]
}

func NewAdministratorRepository(db *DB) administrator.Repository {
	return &administratorRepository{db: db.administrators}
}

func (repo *administratorRepository) EmailExists(_ context.Context, email, excludeID string) (bool, error) {
	return repo.db.exists(func(a administrator.Administrator) bool { return a.Email == email && a.ID != excludeID }), nil
}

func (repo *administratorRepository) Create(_ context.Context, a administrator.Administrator) (administrator.Administrator, error) {
	a.ID = newID()
	repo.db.insert(a.ID, a)
	return a, nil
}

func (repo *administratorRepository) List(_ context.Context, activeOnly bool) ([]administrator.Administrator, error) {
	return repo.db.filter(func(a administrator.Administrator) bool { return a.Active || !activeOnly }), nil
}

func (repo *administratorRepository) Get(_ context.Context, id string) (administrator.Administrator, error) {
	if a, ok := repo.db.get(id); ok {
		return a, nil
	}
	return administrator.Administrator{}, administrator.ErrNotFound
}

func (repo *administratorRepository) GetByEmail(_ context.Context, email string) (administrator.Administrator, error) {
	if found := repo.db.filter(func(a administrator.Administrator) bool { return a.Email == email }); len(found) > 0 {
		return found[0], nil
	}
	return administrator.Administrator{}, administrator.ErrNotFound
}

func (repo *administratorRepository) Update(_ context.Context, a administrator.Administrator) (administrator.Administrator, error) {
	if !repo.db.put(a.ID, a) {
		return administrator.Administrator{}, administrator.ErrNotFound
	}
	return a, nil
}

func (repo *administratorRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return administrator.ErrNotFound
	}
	return nil
}
