// Package inmemdb keeps every collection in process memory. It backs the tests
// and the `memory` database driver.
package inmemdb

import (
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/attendance"
	"github.com/uniasistencia/backend/core/course"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/core/schedule"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

type DB struct {
	teachers       *table[teacher.Teacher]
	students       *table[student.Student]
	administrators *table[administrator.Administrator]
	courses        *table[course.Course]
	schedules      *table[schedule.Slot]
	attendance     *table[attendance.Record]
	configs        *table[notification.Config]
	history        *table[notification.LogEntry]

	watermarkMu sync.Mutex
	watermarks  map[notification.CheckKind]time.Time
}

func Open() *DB {
	return &DB{
		teachers:       newTable[teacher.Teacher](),
		students:       newTable[student.Student](),
		administrators: newTable[administrator.Administrator](),
		courses:        newTable[course.Course](),
		schedules:      newTable[schedule.Slot](),
		attendance:     newTable[attendance.Record](),
		configs:        newTable[notification.Config](),
		history:        newTable[notification.LogEntry](),
		watermarks:     make(map[notification.CheckKind]time.Time),
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// table is a mutex guarded map that remembers insertion order.
type table[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
	ids  []string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = v
	t.ids = append(t.ids, id)
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	return v, ok
}

// put replaces an existing row and reports whether it existed.
func (t *table[T]) put(id string, v T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = v
	return true
}

func (t *table[T]) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, rid := range t.ids {
		if rid == id {
			t.ids = append(t.ids[:i], t.ids[i+1:]...)
			break
		}
	}
	return true
}

// filter returns the rows accepted by keep in insertion order.
func (t *table[T]) filter(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.ids))
	for _, id := range t.ids {
		if v := t.rows[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) exists(match func(T) bool) bool {
	return len(t.filter(match)) > 0
}

// update runs fn with exclusive access to every row.
func (t *table[T]) update(fn func(rows map[string]T) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(t.rows)
}

func newestFirst[T any](rows []T, createdAt func(T) time.Time) {
	// reversing first keeps later inserts ahead on equal timestamps
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	sort.SliceStable(rows, func(i, j int) bool { return createdAt(rows[i]).After(createdAt(rows[j])) })
}
