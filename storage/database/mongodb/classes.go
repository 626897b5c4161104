package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/storage/database"
)

type courseDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Code         string             `bson:"code"`
	Description  string             `bson:"description,omitempty"`
	Credits      int                `bson:"credits"`
	TeacherID    primitive.ObjectID `bson:"teacher_id"`
	ScheduleText string             `bson:"schedule_text,omitempty"`
	Room         string             `bson:"room,omitempty"`
	Capacity     int                `bson:"capacity"`
	Active       bool               `bson:"active"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func newCourseDoc(c course.Course) courseDoc {
	return courseDoc{
		Name:         c.Name,
		Code:         c.Code,
		Description:  c.Description,
		Credits:      c.Credits,
		TeacherID:    refID(c.TeacherID),
		ScheduleText: c.ScheduleText,
		Room:         c.Room,
		Capacity:     c.Capacity,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (d courseDoc) model() course.Course {
	return course.Course{
		ID:           hexID(d.ID),
		Name:         d.Name,
		Code:         d.Code,
		Description:  d.Description,
		Credits:      d.Credits,
		TeacherID:    hexID(d.TeacherID),
		ScheduleText: d.ScheduleText,
		Room:         d.Room,
		Capacity:     d.Capacity,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type courseRepository struct {
	coll collection[courseDoc, course.Course]
}

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{coll: collection[courseDoc, course.Course]{
		coll:     db.Collection(database.Courses),
		notFound: course.ErrNotFound,
		toModel:  courseDoc.model,
	}}
}

func (repo *courseRepository) Create(ctx context.Context, c course.Course) (course.Course, error) {
	oid, err := repo.coll.insert(ctx, newCourseDoc(c))
	if err != nil {
		return course.Course{}, err
	}
	c.ID = oid.Hex()
	return c, nil
}

func courseQuery(filter course.Filter) (bson.M, bool) {
	q := bson.M{}
	return q, matchRef(q, "teacher_id", filter.TeacherID)
}

func (repo *courseRepository) List(ctx context.Context, filter course.Filter) ([]course.Course, error) {
	q, ok := courseQuery(filter)
	if !ok {
		return []course.Course{}, nil
	}
	return repo.coll.find(ctx, q, byCreation)
}

func (repo *courseRepository) Get(ctx context.Context, id string) (course.Course, error) {
	return repo.coll.get(ctx, id)
}

func (repo *courseRepository) Update(ctx context.Context, c course.Course) (course.Course, error) {
	return c, repo.coll.replace(ctx, c.ID, newCourseDoc(c))
}

func (repo *courseRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}

type slotDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TeacherID primitive.ObjectID `bson:"teacher_id"`
	CourseID  primitive.ObjectID `bson:"course_id"`
	DayOfWeek string             `bson:"day_of_week"`
	StartTime string             `bson:"start_time"`
	EndTime   string             `bson:"end_time"`
	Room      string             `bson:"room,omitempty"`
	Active    bool               `bson:"active"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func newSlotDoc(s schedule.Slot) slotDoc {
	return slotDoc{
		TeacherID: refID(s.TeacherID),
		CourseID:  refID(s.CourseID),
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Room:      s.Room,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (d slotDoc) model() schedule.Slot {
	return schedule.Slot{
		ID:        hexID(d.ID),
		TeacherID: hexID(d.TeacherID),
		CourseID:  hexID(d.CourseID),
		DayOfWeek: d.DayOfWeek,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Room:      d.Room,
		Active:    d.Active,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type scheduleRepository struct {
	coll collection[slotDoc, schedule.Slot]
}

func NewScheduleRepository(db *mongo.Database) schedule.Repository {
	return &scheduleRepository{coll: collection[slotDoc, schedule.Slot]{
		coll:     db.Collection(database.Schedules),
		notFound: schedule.ErrNotFound,
		toModel:  slotDoc.model,
	}}
}

func (repo *scheduleRepository) Create(ctx context.Context, s schedule.Slot) (schedule.Slot, error) {
	oid, err := repo.coll.insert(ctx, newSlotDoc(s))
	if err != nil {
		return schedule.Slot{}, err
	}
	s.ID = oid.Hex()
	return s, nil
}

func slotQuery(filter schedule.Filter) (bson.M, bool) {
	q := bson.M{}
	if !matchRef(q, "teacher_id", filter.TeacherID) {
		return nil, false
	}
	if filter.DayOfWeek != "" {
		q["day_of_week"] = filter.DayOfWeek
	}
	if filter.ActiveOnly {
		q["active"] = true
	}
	return q, true
}

func (repo *scheduleRepository) List(ctx context.Context, filter schedule.Filter) ([]schedule.Slot, error) {
	q, ok := slotQuery(filter)
	if !ok {
		return []schedule.Slot{}, nil
	}
	return repo.coll.find(ctx, q, byCreation)
}

func (repo *scheduleRepository) Get(ctx context.Context, id string) (schedule.Slot, error) {
	return repo.coll.get(ctx, id)
}

func (repo *scheduleRepository) Update(ctx context.Context, s schedule.Slot) (schedule.Slot, error) {
	return s, repo.coll.replace(ctx, s.ID, newSlotDoc(s))
}

func (repo *scheduleRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}

type recordDoc struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty"`
	TeacherID       primitive.ObjectID   `bson:"teacher_id"`
	CourseID        primitive.ObjectID   `bson:"course_id"`
	Date            time.Time            `bson:"date"`
	StartTime       string               `bson:"start_time"`
	EndTime         string               `bson:"end_time"`
	Status          string               `bson:"status"`
	PresentStudents []primitive.ObjectID `bson:"present_students"`
	Topic           string               `bson:"topic,omitempty"`
	TotalStudents   int                  `bson:"total_students"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func newRecordDoc(r attendance.Record) (recordDoc, error) {
	present, err := refIDs("present_students", r.PresentStudents)
	if err != nil {
		return recordDoc{}, err
	}
	return recordDoc{
		TeacherID:       refID(r.TeacherID),
		CourseID:        refID(r.CourseID),
		Date:            r.Date,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Status:          string(r.Status),
		PresentStudents: present,
		Topic:           r.Topic,
		TotalStudents:   r.TotalStudents,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func (d recordDoc) model() attendance.Record {
	present := make([]string, 0, len(d.PresentStudents))
	for _, oid := range d.PresentStudents {
		present = append(present, hexID(oid))
	}
	return attendance.Record{
		ID:              hexID(d.ID),
		TeacherID:       hexID(d.TeacherID),
		CourseID:        hexID(d.CourseID),
		Date:            d.Date,
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		Status:          attendance.Status(d.Status),
		PresentStudents: present,
		Topic:           d.Topic,
		TotalStudents:   d.TotalStudents,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type attendanceRepository struct {
	coll collection[recordDoc, attendance.Record]
}

func NewAttendanceRepository(db *mongo.Database) attendance.Repository {
	return &attendanceRepository{coll: collection[recordDoc, attendance.Record]{
		coll:     db.Collection(database.Attendance),
		notFound: attendance.ErrNotFound,
		toModel:  recordDoc.model,
	}}
}

func (repo *attendanceRepository) Create(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	doc, err := newRecordDoc(r)
	if err != nil {
		return attendance.Record{}, err
	}
	oid, err := repo.coll.insert(ctx, doc)
	if err != nil {
		return attendance.Record{}, err
	}
	r.ID = oid.Hex()
	return r, nil
}

func recordQuery(filter attendance.Filter) (bson.M, bool) {
	q := bson.M{}
	if !matchRef(q, "teacher_id", filter.TeacherID) || !matchRef(q, "course_id", filter.CourseID) {
		return nil, false
	}
	dateRange(q, "date", filter.From, filter.To)
	return q, true
}

func (repo *attendanceRepository) List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	q, ok := recordQuery(filter)
	if !ok {
		return []attendance.Record{}, nil
	}
	return repo.coll.find(ctx, q, byCreation)
}

func (repo *attendanceRepository) Get(ctx context.Context, id string) (attendance.Record, error) {
	return repo.coll.get(ctx, id)
}

func (repo *attendanceRepository) Update(ctx context.Context, r attendance.Record) (attendance.Record, error) {
	doc, err := newRecordDoc(r)
	if err != nil {
		return attendance.Record{}, err
	}
	return r, repo.coll.replace(ctx, r.ID, doc)
}

func (repo *attendanceRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}
