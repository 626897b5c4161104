package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
	"github.com/uniasistencia/backend/storage/database"
)

var byCreation = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

type teacherDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	NationalID   string             `bson:"national_id"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password_hash,omitempty"`
	Department   string             `bson:"department"`
	Specialty    string             `bson:"specialty,omitempty"`
	Phone        string             `bson:"phone,omitempty"`
	Role         string             `bson:"role"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newTeacherDoc(t teacher.Teacher) teacherDoc {
	return teacherDoc{
		NationalID:   t.NationalID,
		Name:         t.Name,
		Email:        t.Email,
		PasswordHash: t.PasswordHash,
		Department:   t.Department,
		Specialty:    t.Specialty,
		Phone:        t.Phone,
		Role:         string(t.Role),
		Active:       t.Active,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (d teacherDoc) model() teacher.Teacher {
	return teacher.Teacher{
		ID:           hexID(d.ID),
		NationalID:   d.NationalID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Department:   d.Department,
		Specialty:    d.Specialty,
		Phone:        d.Phone,
		Role:         account.Role(d.Role),
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type teacherRepository struct {
	coll collection[teacherDoc, teacher.Teacher]
}

func NewTeacherRepository(db *mongo.Database) teacher.Repository {
	return &teacherRepository{coll: collection[teacherDoc, teacher.Teacher]{
		coll:     db.Collection(database.Teachers),
		notFound: teacher.ErrNotFound,
		toModel:  teacherDoc.model,
	}}
}

func (repo *teacherRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return repo.coll.exists(ctx, bson.M{"email": email}, excludeID)
}

func (repo *teacherRepository) NationalIDExists(ctx context.Context, nationalID, excludeID string) (bool, error) {
	return repo.coll.exists(ctx, bson.M{"national_id": nationalID}, excludeID)
}

func (repo *teacherRepository) Create(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	oid, err := repo.coll.insert(ctx, newTeacherDoc(t))
	if err != nil {
		return teacher.Teacher{}, err
	}
	t.ID = oid.Hex()
	return t, nil
}

func (repo *teacherRepository) List(ctx context.Context) ([]teacher.Teacher, error) {
	return repo.coll.find(ctx, bson.M{}, byCreation)
}

func (repo *teacherRepository) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	return repo.coll.get(ctx, id)
}

func (repo *teacherRepository) GetByEmail(ctx context.Context, email string) (teacher.Teacher, error) {
	return repo.coll.findOne(ctx, bson.M{"email": email})
}

func (repo *teacherRepository) Update(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	return t, repo.coll.replace(ctx, t.ID, newTeacherDoc(t))
}

func (repo *teacherRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}

type studentDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	StudentNumber string             `bson:"student_number"`
	Email         string             `bson:"email"`
	Career        string             `bson:"career"`
	Semester      int                `bson:"semester"`
	Phone         string             `bson:"phone,omitempty"`
	Active        bool               `bson:"active"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func newStudentDoc(s student.Student) studentDoc {
	return studentDoc{
		Name:          s.Name,
		StudentNumber: s.StudentNumber,
		Email:         s.Email,
		Career:        s.Career,
		Semester:      s.Semester,
		Phone:         s.Phone,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func (d studentDoc) model() student.Student {
	return student.Student{
		ID:            hexID(d.ID),
		Name:          d.Name,
		StudentNumber: d.StudentNumber,
		Email:         d.Email,
		Career:        d.Career,
		Semester:      d.Semester,
		Phone:         d.Phone,
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type studentRepository struct {
	coll collection[studentDoc, student.Student]
}

func NewStudentRepository(db *mongo.Database) student.Repository {
	return &studentRepository{coll: collection[studentDoc, student.Student]{
		coll:     db.Collection(database.Students),
		notFound: student.ErrNotFound,
		toModel:  studentDoc.model,
	}}
}

func (repo *studentRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return repo.coll.exists(ctx, bson.M{"email": email}, excludeID)
}

func (repo *studentRepository) StudentNumberExists(ctx context.Context, number, excludeID string) (bool, error) {
	return repo.coll.exists(ctx, bson.M{"student_number": number}, excludeID)
}

func (repo *studentRepository) Create(ctx context.Context, s student.Student) (student.Student, error) {
	oid, err := repo.coll.insert(ctx, newStudentDoc(s))
	if err != nil {
		return student.Student{}, err
	}
	s.ID = oid.Hex()
	return s, nil
}

func (repo *studentRepository) List(ctx context.Context) ([]student.Student, error) {
	return repo.coll.find(ctx, bson.M{}, byCreation)
}

func (repo *studentRepository) Get(ctx context.Context, id string) (student.Student, error) {
	return repo.coll.get(ctx, id)
}

func (repo *studentRepository) GetByEmail(ctx context.Context, email string) (student.Student, error) {
	return repo.coll.findOne(ctx, bson.M{"email": email})
}

func (repo *studentRepository) Update(ctx context.Context, s student.Student) (student.Student, error) {
	return s, repo.coll.replace(ctx, s.ID, newStudentDoc(s))
}

func (repo *studentRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}

type administratorDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash []byte             `bson:"password_hash,omitempty"`
	Position     string             `bson:"position,omitempty"`
	Phone        string             `bson:"phone,omitempty"`
	Role         string             `bson:"role"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newAdministratorDoc(a administrator.Administrator) administratorDoc {
	return administratorDoc{
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Position:     a.Position,
		Phone:        a.Phone,
		Role:         string(a.Role),
		Active:       a.Active,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (d administratorDoc) model() administrator.Administrator {
	return administrator.Administrator{
		ID:           hexID(d.ID),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Position:     d.Position,
		Phone:        d.Phone,
		Role:         account.Role(d.Role),
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type administratorRepository struct {
	coll collection[administratorDoc, administrator.Administrator]
}

func NewAdministratorRepository(db *mongo.Database) administrator.Repository {
	return &administratorRepository{coll: collection[administratorDoc, administrator.Administrator]{
		coll:     db.Collection(database.Administrators),
		notFound: administrator.ErrNotFound,
		toModel:  administratorDoc.model,
	}}
}

func (repo *administratorRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return repo.coll.exists(ctx, bson.M{"email": email}, excludeID)
}

func (repo *administratorRepository) Create(ctx context.Context, a administrator.Administrator) (administrator.Administrator, error) {
	oid, err := repo.coll.insert(ctx, newAdministratorDoc(a))
	if err != nil {
		return administrator.Administrator{}, err
	}
	a.ID = oid.Hex()
	return a, nil
}

func (repo *administratorRepository) List(ctx context.Context, activeOnly bool) ([]administrator.Administrator, error) {
	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	return repo.coll.find(ctx, filter, byCreation)
}

func (repo *administratorRepository) Get(ctx context.Context, id string) (administrator.Administrator, error) {
	return repo.coll.get(ctx, id)
}

func (repo *administratorRepository) GetByEmail(ctx context.Context, email string) (administrator.Administrator, error) {
	return repo.coll.findOne(ctx, bson.M{"email": email})
}

func (repo *administratorRepository) Update(ctx context.Context, a administrator.Administrator) (administrator.Administrator, error) {
	return a, repo.coll.replace(ctx, a.ID, newAdministratorDoc(a))
}

func (repo *administratorRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}
