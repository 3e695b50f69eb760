package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pilotscope/internal/model"
)

const defaultListLimit = 50

// AssessmentRepo persists the audit record of every generation call
type AssessmentRepo interface {
	Save(ctx context.Context, record *model.AssessmentRecord) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.AssessmentRecord, error)
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a repository over the assessments collection
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

// EnsureIndexes creates the session lookup index
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("assessments").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *assessmentRepo) Save(ctx context.Context, record *model.AssessmentRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	return err
}

func (r *assessmentRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.AssessmentRecord, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*model.AssessmentRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type noopAssessmentRepo struct{}

// NewNoopAssessmentRepo discards records; used when no database is configured
func NewNoopAssessmentRepo() AssessmentRepo {
	return noopAssessmentRepo{}
}

func (noopAssessmentRepo) Save(context.Context, *model.AssessmentRecord) error { return nil }

func (noopAssessmentRepo) ListBySession(context.Context, string, int) ([]*model.AssessmentRecord, error) {
	return []*model.AssessmentRecord{}, nil
}
