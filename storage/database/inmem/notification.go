package inmemdb

import (
	"context"
	"time"

	"github.com/uniasistencia/backend/core/notification"
)

type configRepository struct {
	db *table[notification.Config]
}

func NewConfigRepository(db *DB) notification.ConfigRepository {
	return &configRepository{db: db.configs}
}

func (repo *configRepository) Create(_ context.Context, c notification.Config) (notification.Config, error) {
	c.ID = newID()
	c.ExtraRecipients = append([]string{}, c.ExtraRecipients...)
	repo.db.insert(c.ID, c)
	return c, nil
}

func (repo *configRepository) List(context.Context) ([]notification.Config, error) {
	configs := repo.db.filter(nil)
	newestFirst(configs, func(c notification.Config) time.Time { return c.CreatedAt })
	return configs, nil
}

func (repo *configRepository) Get(_ context.Context, id string) (notification.Config, error) {
	if c, ok := repo.db.get(id); ok {
		return c, nil
	}
	return notification.Config{}, notification.ErrConfigNotFound
}

func (repo *configRepository) GetActive(context.Context) (notification.Config, error) {
	if found := repo.db.filter(func(c notification.Config) bool { return c.Active }); len(found) > 0 {
		return found[0], nil
	}
	return notification.Config{}, notification.ErrConfigNotFound
}

func (repo *configRepository) Update(_ context.Context, c notification.Config) (notification.Config, error) {
	c.ExtraRecipients = append([]string{}, c.ExtraRecipients...)
	if !repo.db.put(c.ID, c) {
		return notification.Config{}, notification.ErrConfigNotFound
	}
	return c, nil
}

func (repo *configRepository) Activate(_ context.Context, id string) (notification.Config, error) {
	var activated notification.Config
	err := repo.db.update(func(rows map[string]notification.Config) error {
		target, ok := rows[id]
		if !ok {
			return notification.ErrConfigNotFound
		}
		for rid, c := range rows {
			if c.Active && rid != id {
				c.Active = false
				rows[rid] = c
			}
		}
		if !target.Active {
			target.Active = true
			target.Version++
		}
		rows[id] = target
		activated = target
		return nil
	})
	return activated, err
}

func (repo *configRepository) Delete(_ context.Context, id string) error {
	if !repo.db.remove(id) {
		return notification.ErrConfigNotFound
	}
	return nil
}

type historyRepository struct {
	db *table[notification.LogEntry]
}

func NewHistoryRepository(db *DB) notification.HistoryRepository {
	return &historyRepository{db: db.history}
}

func (repo *historyRepository) Insert(_ context.Context, e notification.LogEntry) (notification.LogEntry, error) {
	e.ID = newID()
	repo.db.insert(e.ID, e)
	return e, nil
}

func (repo *historyRepository) Find(_ context.Context, f notification.Filter) ([]notification.LogEntry, error) {
	entries := repo.db.filter(func(e notification.LogEntry) bool {
		return (f.TeacherID == "" || (e.TeacherID != nil && *e.TeacherID == f.TeacherID)) &&
			(f.From.IsZero() || !e.ClassDate.Before(f.From)) &&
			(f.To.IsZero() || e.ClassDate.Before(f.To)) &&
			(f.Reason == "" || e.Reason == f.Reason) &&
			(f.Outcome == "" || e.Outcome == f.Outcome) &&
			(f.Kind == "" || e.Kind == f.Kind) &&
			(!f.TeacherFacing || !e.AdministratorNotice)
	})
	newestFirst(entries, func(e notification.LogEntry) time.Time { return e.CreatedAt })
	if f.Limit > 0 && len(entries) > f.Limit {
		entries = entries[:f.Limit]
	}
	return entries, nil
}

func (repo *historyRepository) Stats(_ context.Context, kind notification.Kind) (notification.Stats, error) {
	st := notification.Stats{ByReason: make(map[notification.Reason]int64)}
	for _, e := range repo.db.filter(func(e notification.LogEntry) bool { return e.Kind == kind }) {
		st.Total++
		switch e.Outcome {
		case notification.OutcomeSent:
			st.Sent++
		case notification.OutcomeError:
			st.Errors++
		}
		st.ByReason[e.Reason]++
	}
	return st, nil
}

type watermarkStore struct {
	db *DB
}

func NewWatermarkStore(db *DB) notification.WatermarkStore {
	return &watermarkStore{db: db}
}

func (s *watermarkStore) LastRun(_ context.Context, kind notification.CheckKind) (time.Time, error) {
	s.db.watermarkMu.Lock()
	defer s.db.watermarkMu.Unlock()
	return s.db.watermarks[kind], nil
}

func (s *watermarkStore) SetLastRun(_ context.Context, kind notification.CheckKind, t time.Time) error {
	s.db.watermarkMu.Lock()
	defer s.db.watermarkMu.Unlock()
	s.db.watermarks[kind] = t
	return nil
}
