package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/notification"
	"github.com/uniasistencia/backend/storage/database"
)

// illegalOperation is returned by standalone servers for transactions.
const illegalOperation = 20

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

type configDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Active                bool               `bson:"active"`
	Version               int64              `bson:"version"`
	PrimaryCheckTime      string             `bson:"primary_check_time"`
	EarlyCheckTime        string             `bson:"early_check_time"`
	ExtraRecipients       []string           `bson:"extra_recipients"`
	TeacherTemplate       string             `bson:"teacher_template"`
	AdministratorTemplate string             `bson:"administrator_template"`
	TeacherSubject        string             `bson:"teacher_subject"`
	AdministratorSubject  string             `bson:"administrator_subject"`
	SendToTeachers        bool               `bson:"send_to_teachers"`
	SendToAdministrators  bool               `bson:"send_to_administrators"`
	SendToExtraRecipients bool               `bson:"send_to_extra_recipients"`
	Description           string             `bson:"description,omitempty"`
	CreatedAt             time.Time          `bson:"created_at"`
	UpdatedAt             time.Time          `bson:"updated_at"`
}

func newConfigDoc(c notification.Config) configDoc {
	recipients := c.ExtraRecipients
	if recipients == nil {
		recipients = []string{}
	}
	return configDoc{
		Active:                c.Active,
		Version:               c.Version,
		PrimaryCheckTime:      c.PrimaryCheckTime,
		EarlyCheckTime:        c.EarlyCheckTime,
		ExtraRecipients:       recipients,
		TeacherTemplate:       c.TeacherTemplate,
		AdministratorTemplate: c.AdministratorTemplate,
		TeacherSubject:        c.TeacherSubject,
		AdministratorSubject:  c.AdministratorSubject,
		SendToTeachers:        c.SendToTeachers,
		SendToAdministrators:  c.SendToAdministrators,
		SendToExtraRecipients: c.SendToExtraRecipients,
		Description:           c.Description,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

func (d configDoc) model() notification.Config {
	recipients := d.ExtraRecipients
	if recipients == nil {
		recipients = []string{}
	}
	return notification.Config{
		ID:                    hexID(d.ID),
		Active:                d.Active,
		Version:               d.Version,
		PrimaryCheckTime:      d.PrimaryCheckTime,
		EarlyCheckTime:        d.EarlyCheckTime,
		ExtraRecipients:       recipients,
		TeacherTemplate:       d.TeacherTemplate,
		AdministratorTemplate: d.AdministratorTemplate,
		TeacherSubject:        d.TeacherSubject,
		AdministratorSubject:  d.AdministratorSubject,
		SendToTeachers:        d.SendToTeachers,
		SendToAdministrators:  d.SendToAdministrators,
		SendToExtraRecipients: d.SendToExtraRecipients,
		Description:           d.Description,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type configRepository struct {
	client *mongo.Client
	coll   collection[configDoc, notification.Config]
}

func NewConfigRepository(db *mongo.Database) notification.ConfigRepository {
	return &configRepository{
		client: db.Client(),
		coll: collection[configDoc, notification.Config]{
			coll:     db.Collection(database.Configs),
			notFound: notification.ErrConfigNotFound,
			toModel:  configDoc.model,
		},
	}
}

func (repo *configRepository) Create(ctx context.Context, c notification.Config) (notification.Config, error) {
	oid, err := repo.coll.insert(ctx, newConfigDoc(c))
	if err != nil {
		return notification.Config{}, err
	}
	c.ID = oid.Hex()
	return c, nil
}

func (repo *configRepository) List(ctx context.Context) ([]notification.Config, error) {
	return repo.coll.find(ctx, bson.M{}, newestFirst)
}

func (repo *configRepository) Get(ctx context.Context, id string) (notification.Config, error) {
	return repo.coll.get(ctx, id)
}

func (repo *configRepository) GetActive(ctx context.Context) (notification.Config, error) {
	return repo.coll.findOne(ctx, bson.M{"active": true})
}

func (repo *configRepository) Update(ctx context.Context, c notification.Config) (notification.Config, error) {
	return c, repo.coll.replace(ctx, c.ID, newConfigDoc(c))
}

func (repo *configRepository) Delete(ctx context.Context, id string) error {
	return repo.coll.delete(ctx, id)
}

// Activate deactivates every other config and activates id in one transaction.
// Standalone servers, which cannot run transactions, get the same writes in sequence.
func (repo *configRepository) Activate(ctx context.Context, id string) (notification.Config, error) {
	oid, ok := objectID(id)
	if !ok {
		return notification.Config{}, notification.ErrConfigNotFound
	}

	sess, err := repo.client.StartSession()
	if err != nil {
		return notification.Config{}, errors.Wrap(err, "starting session")
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return repo.activate(sc, oid)
	})
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == illegalOperation {
		res, err = repo.activate(ctx, oid)
	}
	if err != nil {
		return notification.Config{}, err
	}
	return res.(notification.Config), nil
}

func (repo *configRepository) activate(ctx context.Context, oid primitive.ObjectID) (notification.Config, error) {
	coll := repo.coll.coll
	target, err := repo.coll.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return notification.Config{}, err
	}
	now := time.Now().UTC()
	_, err = coll.UpdateMany(ctx,
		bson.M{"active": true, "_id": bson.M{"$ne": oid}},
		bson.M{"$set": bson.M{"active": false, "updated_at": now}},
	)
	if err != nil {
		return notification.Config{}, errors.Wrap(err, "deactivating configs")
	}
	if target.Active {
		return target, nil
	}
	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"active": true, "updated_at": now}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return notification.Config{}, errors.Wrap(err, "activating config")
	}
	return repo.coll.findOne(ctx, bson.M{"_id": oid})
}

type logEntryDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	Kind                string             `bson:"kind"`
	TeacherID           *string            `bson:"teacher_id"`
	CourseID            *string            `bson:"course_id"`
	RecipientEmail      string             `bson:"recipient_email"`
	TeacherName         string             `bson:"teacher_name"`
	CourseName          string             `bson:"course_name"`
	ClassDate           time.Time          `bson:"class_date"`
	Reason              string             `bson:"reason"`
	Outcome             string             `bson:"outcome"`
	ErrorMessage        string             `bson:"error_message,omitempty"`
	AdministratorNotice bool               `bson:"administrator_notice"`
	CreatedAt           time.Time          `bson:"created_at"`
}

func newLogEntryDoc(e notification.LogEntry) logEntryDoc {
	return logEntryDoc{
		Kind:                string(e.Kind),
		TeacherID:           e.TeacherID,
		CourseID:            e.CourseID,
		RecipientEmail:      e.RecipientEmail,
		TeacherName:         e.TeacherName,
		CourseName:          e.CourseName,
		ClassDate:           e.ClassDate,
		Reason:              string(e.Reason),
		Outcome:             string(e.Outcome),
		ErrorMessage:        e.ErrorMessage,
		AdministratorNotice: e.AdministratorNotice,
		CreatedAt:           e.CreatedAt,
	}
}

func (d logEntryDoc) model() notification.LogEntry {
	kind := notification.Kind(d.Kind)
	if kind == "" {
		kind = notification.KindNotification
	}
	return notification.LogEntry{
		ID:                  hexID(d.ID),
		Kind:                kind,
		TeacherID:           d.TeacherID,
		CourseID:            d.CourseID,
		RecipientEmail:      d.RecipientEmail,
		TeacherName:         d.TeacherName,
		CourseName:          d.CourseName,
		ClassDate:           d.ClassDate,
		Reason:              notification.Reason(d.Reason),
		Outcome:             notification.Outcome(d.Outcome),
		ErrorMessage:        d.ErrorMessage,
		AdministratorNotice: d.AdministratorNotice,
		CreatedAt:           d.CreatedAt,
	}
}

type historyRepository struct {
	coll collection[logEntryDoc, notification.LogEntry]
}

func NewHistoryRepository(db *mongo.Database) notification.HistoryRepository {
	return &historyRepository{coll: collection[logEntryDoc, notification.LogEntry]{
		coll:     db.Collection(database.History),
		notFound: core.NewNotFoundError("notification history entry"),
		toModel:  logEntryDoc.model,
	}}
}

func (repo *historyRepository) Insert(ctx context.Context, e notification.LogEntry) (notification.LogEntry, error) {
	oid, err := repo.coll.insert(ctx, newLogEntryDoc(e))
	if err != nil {
		return notification.LogEntry{}, err
	}
	e.ID = oid.Hex()
	return e, nil
}

func historyQuery(f notification.Filter) bson.M {
	q := bson.M{}
	if f.TeacherID != "" {
		q["teacher_id"] = f.TeacherID
	}
	dateRange(q, "class_date", f.From, f.To)
	if f.Reason != "" {
		q["reason"] = f.Reason
	}
	if f.Outcome != "" {
		q["outcome"] = f.Outcome
	}
	if f.Kind == notification.KindNotification {
		// entries written before kinds existed are notifications
		q["kind"] = bson.M{"$in": bson.A{f.Kind, nil}}
	} else if f.Kind != "" {
		q["kind"] = f.Kind
	}
	if f.TeacherFacing {
		q["administrator_notice"] = bson.M{"$ne": true}
	}
	return q
}

func (repo *historyRepository) Find(ctx context.Context, f notification.Filter) ([]notification.LogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return repo.coll.find(ctx, historyQuery(f), opts)
}

func (repo *historyRepository) Stats(ctx context.Context, kind notification.Kind) (notification.Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"kind": bson.M{"$in": bson.A{kind, nil}}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"outcome": "$outcome", "reason": "$reason"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := repo.coll.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return notification.Stats{}, errors.Wrap(err, "aggregating history")
	}
	var groups []struct {
		ID struct {
			Outcome string `bson:"outcome"`
			Reason  string `bson:"reason"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return notification.Stats{}, errors.Wrap(err, "decoding history stats")
	}

	st := notification.Stats{ByReason: make(map[notification.Reason]int64)}
	for _, g := range groups {
		st.Total += g.Count
		switch notification.Outcome(g.ID.Outcome) {
		case notification.OutcomeSent:
			st.Sent += g.Count
		case notification.OutcomeError:
			st.Errors += g.Count
		}
		st.ByReason[notification.Reason(g.ID.Reason)] += g.Count
	}
	return st, nil
}

type watermarkStore struct {
	coll *mongo.Collection
}

func NewWatermarkStore(db *mongo.Database) notification.WatermarkStore {
	return &watermarkStore{coll: db.Collection(database.JobRuns)}
}

func (s *watermarkStore) LastRun(ctx context.Context, kind notification.CheckKind) (time.Time, error) {
	var doc struct {
		LastRun time.Time `bson:"last_run"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": string(kind)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, errors.Wrap(err, "reading job watermark")
	}
	return doc.LastRun, nil
}

func (s *watermarkStore) SetLastRun(ctx context.Context, kind notification.CheckKind, t time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": string(kind)},
		bson.M{"$set": bson.M{"last_run": t.UTC()}},
		options.Update().SetUpsert(true),
	)
	return errors.Wrap(err, "saving job watermark")
}
