package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"pilotscope/internal/model"
)

func TestAssessmentRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewAssessmentRepo(mt.DB)
		err := repo.Save(context.Background(), &model.AssessmentRecord{
			ID:          "req-1",
			RequestID:   "req-1",
			SessionID:   "s-1",
			RequestType: model.RequestGenerateQuestions,
			Status:      model.AssessmentOK,
			CreatedAt:   time.Now().UTC(),
		})
		assert.NoError(mt, err)
	})

	mt.Run("list by session", func(mt *mtest.T) {
		ns := mt.DB.Name() + ".assessments"
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "req-2"},
				{Key: "requestId", Value: "req-2"},
				{Key: "sessionId", Value: "s-1"},
				{Key: "requestType", Value: "generate_report"},
				{Key: "status", Value: "failed"},
				{Key: "errorKind", Value: "timeout"},
			},
		)
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		repo := NewAssessmentRepo(mt.DB)
		records, err := repo.ListBySession(context.Background(), "s-1", 10)
		require.NoError(mt, err)
		require.Len(mt, records, 1)
		assert.Equal(mt, model.RequestGenerateReport, records[0].RequestType)
		assert.Equal(mt, model.AssessmentFailed, records[0].Status)
		assert.Equal(mt, "timeout", records[0].ErrorKind)
	})
}

func TestNoopAssessmentRepo(t *testing.T) {
	repo := NewNoopAssessmentRepo()
	require.NoError(t, repo.Save(context.Background(), &model.AssessmentRecord{ID: "x"}))
	records, err := repo.ListBySession(context.Background(), "s", 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
