// Package mongodb implements the repositories on top of MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/uniasistencia/backend/core"
)

// objectID parses a hex id; malformed ids can never match a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// refID converts a reference; malformed references are stored as the nil id.
func refID(id string) primitive.ObjectID {
	oid, _ := objectID(id)
	return oid
}

// refIDs converts a list of references, rejecting malformed ones.
func refIDs(field string, ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, ok := objectID(id)
		if !ok {
			return nil, core.NewValidationError(nil, core.FieldError{Field: field, Error: fmt.Sprintf("%q is not a valid id", id)})
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

// matchRef adds an equality on a reference to q when id is set.
// It reports false when id is malformed, since nothing can match it.
func matchRef(q bson.M, key, id string) bool {
	if id == "" {
		return true
	}
	oid, ok := objectID(id)
	if !ok {
		return false
	}
	q[key] = oid
	return true
}

// dateRange adds a [from, to) range on key to q for the bounds that are set.
func dateRange(q bson.M, key string, from, to time.Time) {
	r := bson.M{}
	if !from.IsZero() {
		r["$gte"] = from
	}
	if !to.IsZero() {
		r["$lt"] = to
	}
	if len(r) > 0 {
		q[key] = r
	}
}

func hexID(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

// collection wraps a mongo collection of documents D mapped to models T.
type collection[D any, T any] struct {
	coll     *mongo.Collection
	notFound error
	toModel  func(D) T
}

func (c collection[D, T]) get(ctx context.Context, id string) (T, error) {
	oid, ok := objectID(id)
	if !ok {
		var zero T
		return zero, c.notFound
	}
	return c.findOne(ctx, bson.M{"_id": oid})
}

func (c collection[D, T]) findOne(ctx context.Context, filter bson.M) (T, error) {
	var doc D
	if err := c.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		var zero T
		if err == mongo.ErrNoDocuments {
			return zero, c.notFound
		}
		return zero, errors.Wrapf(err, "finding in %s", c.coll.Name())
	}
	return c.toModel(doc), nil
}

func (c collection[D, T]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", c.coll.Name())
	}
	var docs []D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", c.coll.Name())
	}
	models := make([]T, 0, len(docs))
	for _, d := range docs {
		models = append(models, c.toModel(d))
	}
	return models, nil
}

func (c collection[D, T]) insert(ctx context.Context, doc D) (primitive.ObjectID, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "inserting into %s", c.coll.Name())
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid, nil
}

func (c collection[D, T]) replace(ctx context.Context, id string, doc D) error {
	oid, ok := objectID(id)
	if !ok {
		return c.notFound
	}
	res, err := c.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		return errors.Wrapf(err, "replacing in %s", c.coll.Name())
	}
	if res.MatchedCount == 0 {
		return c.notFound
	}
	return nil
}

func (c collection[D, T]) delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return c.notFound
	}
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", c.coll.Name())
	}
	if res.DeletedCount == 0 {
		return c.notFound
	}
	return nil
}

// exists reports whether a document other than excludeID matches filter.
func (c collection[D, T]) exists(ctx context.Context, filter bson.M, excludeID string) (bool, error) {
	if oid, ok := objectID(excludeID); ok {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := c.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "counting in %s", c.coll.Name())
	}
	return n > 0, nil
}
