package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

const (
	luisID  = "65a1b2c3d4e5f6a7b8c9d0e1"
	calcID  = "65a1b2c3d4e5f6a7b8c9d0e2"
	sofiaID = "65a1b2c3d4e5f6a7b8c9d0e3"
	raulID  = "65a1b2c3d4e5f6a7b8c9d0e4"
)

var (
	created = time.Date(2026, 10, 1, 13, 0, 0, 0, time.UTC)
	updated = time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)
)

func TestDocs(t *testing.T) {
	oid := primitive.NewObjectID()
	str := func(s string) *string { return &s }

	tests := []struct {
		name  string
		model interface{}
	}{
		{
			name: "teacher",
			model: teacher.Teacher{
				ID: oid.Hex(), NationalID: "12345678", Name: "Luis Peña", Email: "luis@uni.edu", PasswordHash: []byte("hash"),
				Department: "Matemáticas", Specialty: "Análisis", Phone: "0991234567", Role: account.RoleTeacher, Active: true,
				CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "student",
			model: student.Student{
				ID: oid.Hex(), Name: "Sofía Ruiz", StudentNumber: "A001", Email: "sofia@uni.edu", Career: "Ingeniería",
				Semester: 3, Active: true, CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "administrator",
			model: administrator.Administrator{
				ID: oid.Hex(), Name: "Ana Mora", Email: "ana@uni.edu", PasswordHash: []byte("hash"), Position: "Decana",
				Role: account.RoleAdministrator, Active: true, CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "course",
			model: course.Course{
				ID: oid.Hex(), Name: "Cálculo I", Code: "MAT101", Credits: 4, TeacherID: luisID, ScheduleText: "Lun 08:00",
				Room: "A-101", Capacity: 30, Active: true, CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "course without teacher",
			model: course.Course{ID: oid.Hex(), Name: "Álgebra", Code: "MAT102", CreatedAt: created, UpdatedAt: updated},
		},
		{
			name: "slot",
			model: schedule.Slot{
				ID: oid.Hex(), TeacherID: luisID, CourseID: calcID, DayOfWeek: "lunes", StartTime: "08:00", EndTime: "10:00",
				Room: "A-101", Active: true, CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "record",
			model: attendance.Record{
				ID: oid.Hex(), TeacherID: luisID, CourseID: calcID, Date: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
				StartTime: "08:00", EndTime: "10:00", Status: attendance.StatusFinalized, PresentStudents: []string{sofiaID, raulID},
				Topic: "Límites", TotalStudents: 2, CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "record without students",
			model: attendance.Record{
				ID: oid.Hex(), TeacherID: luisID, CourseID: calcID, Status: attendance.StatusPending, PresentStudents: []string{},
				CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "config",
			model: notification.Config{
				ID: oid.Hex(), Active: true, Version: 3, PrimaryCheckTime: "20:00", EarlyCheckTime: "12:00",
				ExtraRecipients: []string{"decano@uni.edu"}, TeacherTemplate: "t", AdministratorTemplate: "a",
				TeacherSubject: "ts", AdministratorSubject: "as", SendToTeachers: true, SendToAdministrators: true,
				Description: "semestre", CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "config without recipients",
			model: notification.Config{
				ID: oid.Hex(), PrimaryCheckTime: "20:00", EarlyCheckTime: "12:00", ExtraRecipients: []string{},
				CreatedAt: created, UpdatedAt: updated,
			},
		},
		{
			name: "log entry",
			model: notification.LogEntry{
				ID: oid.Hex(), Kind: notification.KindNotification, TeacherID: str(luisID), CourseID: str(calcID),
				RecipientEmail: "luis@uni.edu", TeacherName: "Luis Peña", CourseName: "Cálculo I",
				ClassDate: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), Reason: notification.ReasonUnrecorded,
				Outcome: notification.OutcomeError, ErrorMessage: "smtp down", AdministratorNotice: true, CreatedAt: created,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got interface{}
			switch m := tt.model.(type) {
			case teacher.Teacher:
				d := newTeacherDoc(m)
				d.ID = oid
				got = d.model()
			case student.Student:
				d := newStudentDoc(m)
				d.ID = oid
				got = d.model()
			case administrator.Administrator:
				d := newAdministratorDoc(m)
				d.ID = oid
				got = d.model()
			case course.Course:
				d := newCourseDoc(m)
				d.ID = oid
				got = d.model()
			case schedule.Slot:
				d := newSlotDoc(m)
				d.ID = oid
				got = d.model()
			case attendance.Record:
				d, err := newRecordDoc(m)
				require.NoError(t, err)
				d.ID = oid
				got = d.model()
			case notification.Config:
				d := newConfigDoc(m)
				d.ID = oid
				got = d.model()
			case notification.LogEntry:
				d := newLogEntryDoc(m)
				d.ID = oid
				got = d.model()
			default:
				t.Fatalf("unexpected model %T", m)
			}
			assert.Equal(t, tt.model, got)
		})
	}
}

func TestDocs_nilSlices(t *testing.T) {
	d, err := newRecordDoc(attendance.Record{TeacherID: luisID, CourseID: calcID})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{}, d.PresentStudents)
	assert.Equal(t, []string{}, recordDoc{}.model().PresentStudents)

	assert.Equal(t, []string{}, newConfigDoc(notification.Config{}).ExtraRecipients)
	assert.Equal(t, []string{}, configDoc{}.model().ExtraRecipients)

	// entries written before kinds existed
	assert.Equal(t, notification.KindNotification, logEntryDoc{}.model().Kind)
}

func TestNewRecordDoc_malformedStudent(t *testing.T) {
	_, err := newRecordDoc(attendance.Record{TeacherID: luisID, CourseID: calcID, PresentStudents: []string{sofiaID, "A001"}})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []core.FieldError{{Field: "present_students", Error: `"A001" is not a valid id`}}, vErr.Fields)

	// nothing reaches the collection
	repo := &attendanceRepository{}
	_, err = repo.Create(context.Background(), attendance.Record{PresentStudents: []string{"A001"}})
	assert.ErrorAs(t, err, &vErr)
	_, err = repo.Update(context.Background(), attendance.Record{ID: luisID, PresentStudents: []string{"A001"}})
	assert.ErrorAs(t, err, &vErr)
}

func TestRecordQuery(t *testing.T) {
	luis, _ := primitive.ObjectIDFromHex(luisID)
	calc, _ := primitive.ObjectIDFromHex(calcID)
	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter attendance.Filter
		want   bson.M
		wantOk bool
	}{
		{name: "Everything", want: bson.M{}, wantOk: true},
		{name: "By teacher", filter: attendance.Filter{TeacherID: luisID}, want: bson.M{"teacher_id": luis}, wantOk: true},
		{name: "By course", filter: attendance.Filter{CourseID: calcID}, want: bson.M{"course_id": calc}, wantOk: true},
		{
			name:   "Day of a class",
			filter: attendance.Filter{TeacherID: luisID, CourseID: calcID, From: from, To: to},
			want:   bson.M{"teacher_id": luis, "course_id": calc, "date": bson.M{"$gte": from, "$lt": to}},
			wantOk: true,
		},
		{name: "Open ended", filter: attendance.Filter{From: from}, want: bson.M{"date": bson.M{"$gte": from}}, wantOk: true},
		{name: "Malformed teacher", filter: attendance.Filter{TeacherID: "luis"}},
		{name: "Malformed course", filter: attendance.Filter{TeacherID: luisID, CourseID: "MAT101"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := recordQuery(tt.filter)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSlotAndCourseQuery(t *testing.T) {
	luis, _ := primitive.ObjectIDFromHex(luisID)

	q, ok := slotQuery(schedule.Filter{TeacherID: luisID, DayOfWeek: "lunes", ActiveOnly: true})
	assert.True(t, ok)
	assert.Equal(t, bson.M{"teacher_id": luis, "day_of_week": "lunes", "active": true}, q)

	q, ok = slotQuery(schedule.Filter{})
	assert.True(t, ok)
	assert.Equal(t, bson.M{}, q)

	_, ok = slotQuery(schedule.Filter{TeacherID: "luis", DayOfWeek: "lunes"})
	assert.False(t, ok)

	q, ok = courseQuery(course.Filter{TeacherID: luisID})
	assert.True(t, ok)
	assert.Equal(t, bson.M{"teacher_id": luis}, q)

	_, ok = courseQuery(course.Filter{TeacherID: "luis"})
	assert.False(t, ok)
}

func TestList_malformedReference(t *testing.T) {
	ctx := context.Background()

	// answered without reaching the collection
	courses, err := (&courseRepository{}).List(ctx, course.Filter{TeacherID: "luis"})
	require.NoError(t, err)
	assert.Equal(t, []course.Course{}, courses)

	slots, err := (&scheduleRepository{}).List(ctx, schedule.Filter{TeacherID: "luis"})
	require.NoError(t, err)
	assert.Equal(t, []schedule.Slot{}, slots)

	records, err := (&attendanceRepository{}).List(ctx, attendance.Filter{CourseID: "MAT101"})
	require.NoError(t, err)
	assert.Equal(t, []attendance.Record{}, records)
}

func TestHistoryQuery(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter notification.Filter
		want   bson.M
	}{
		{name: "Everything", want: bson.M{}},
		{
			name:   "Notifications include legacy entries",
			filter: notification.Filter{Kind: notification.KindNotification},
			want:   bson.M{"kind": bson.M{"$in": bson.A{notification.KindNotification, nil}}},
		},
		{
			name:   "Attendance entries",
			filter: notification.Filter{Kind: notification.KindAttendanceRecorded},
			want:   bson.M{"kind": notification.KindAttendanceRecorded},
		},
		{
			name: "Teacher facing",
			filter: notification.Filter{
				TeacherID: luisID, From: from, To: to, Reason: notification.ReasonAbsence, Outcome: notification.OutcomeSent,
				TeacherFacing: true, Limit: 10,
			},
			want: bson.M{
				"teacher_id":           luisID,
				"class_date":           bson.M{"$gte": from, "$lt": to},
				"reason":               notification.ReasonAbsence,
				"outcome":              notification.OutcomeSent,
				"administrator_notice": bson.M{"$ne": true},
			},
		},
		{name: "Until", filter: notification.Filter{To: to}, want: bson.M{"class_date": bson.M{"$lt": to}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, historyQuery(tt.filter))
		})
	}
}
