// internal/app/store/importruns/store.go
package importruns

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxStoredErrors caps the row errors kept on a record. ErrorCount still
// holds the full number.
const MaxStoredErrors = 100

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("import run record not found")

// Record is the history entry written when an import run completes.
// RunID identifies one upload: a run that is reset and started again
// writes a second record under a new ID.
type Record struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	RunID string             `bson:"run_id"`

	Entity   string `bson:"entity"`
	FileName string `bson:"file_name"`

	OwnerID   string `bson:"owner_id"`
	OwnerName string `bson:"owner_name,omitempty"`

	// Foreign keys the rows were imported under, by context key.
	Context map[string]string `bson:"context,omitempty"`

	Total     int  `bson:"total"`
	Created   int  `bson:"created"`
	Failed    int  `bson:"failed"`
	Skipped   int  `bson:"skipped"`
	Batches   int  `bson:"batches"`
	Cancelled bool `bson:"cancelled"`

	Errors     []string `bson:"errors,omitempty"`
	ErrorCount int      `bson:"error_count"`

	StartedAt  time.Time `bson:"started_at"`
	FinishedAt time.Time `bson:"finished_at"`
}

// Duration is how long the upload took.
func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ListFilter narrows List and Count.
type ListFilter struct {
	Entity  string
	OwnerID string
	Limit   int64
	Offset  int64
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if f.Entity != "" {
		q["entity"] = f.Entity
	}
	if f.OwnerID != "" {
		q["owner_id"] = f.OwnerID
	}
	return q
}

// Store persists import run history.
type Store struct {
	c *mongo.Collection
}

// New creates a new import run Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("import_runs")}
}

// EnsureIndexes creates the indexes the history page queries by.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "finished_at", Value: -1}}},
		{
			Keys: bson.D{
				{Key: "entity", Value: 1},
				{Key: "finished_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "finished_at", Value: -1},
			},
		},
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// Save inserts rec. Errors beyond MaxStoredErrors are dropped; ErrorCount
// is filled from the full list when unset.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	if rec.ErrorCount == 0 {
		rec.ErrorCount = len(rec.Errors)
	}
	if len(rec.Errors) > MaxStoredErrors {
		rec.Errors = rec.Errors[:MaxStoredErrors]
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns one record by ID.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (Record, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns records newest first. A non-positive limit means 50.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "finished_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset).
		SetProjection(bson.M{"errors": 0})

	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns how many records match f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}
