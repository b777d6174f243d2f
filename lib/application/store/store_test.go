package applicationstore

import (
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	dbmodels "job-pipeline-backend/models/db"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRaiseHighWater(t *testing.T) {
	schema := stageschema.Default()

	t.Run(`forward move raises mark`, func(t *testing.T) {
		require.Equal(t, models.StageInterview, raiseHighWater(schema, models.StageApplied, models.StageInterview))
	})
	t.Run(`backward move keeps mark`, func(t *testing.T) {
		require.Equal(t, models.StageInterview, raiseHighWater(schema, models.StageInterview, models.StageApplied))
	})
	t.Run(`exit stage keeps mark`, func(t *testing.T) {
		require.Equal(t, models.StageOffer, raiseHighWater(schema, models.StageOffer, models.StageRejected))
	})
	t.Run(`empty mark`, func(t *testing.T) {
		require.Equal(t, models.StageInterested, raiseHighWater(schema, "", models.StageWithdrawn))
		require.Equal(t, models.StagePhoneScreen, raiseHighWater(schema, "", models.StagePhoneScreen))
	})
}

func TestApplicationConvert(t *testing.T) {
	rec := pipelinemodels.Entity{
		ID:             "9b2f6a8e-4d1c-4f57-9a43-0d6f0f3f5b11",
		CurrentStage:   models.StageInterview,
		HighWaterStage: models.StageInterview,
		StageChangedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Payload: pipelinemodels.Payload{
			Company:  "ООО Ромашка",
			Position: "Go developer",
			Salary:   250000,
		},
	}
	row := dbmodels.NewApplication(rec)
	require.Equal(t, rec.ID, row.ID)
	require.Equal(t, "Go developer", row.Position)
	require.Equal(t, rec, row.ToEntity())
}

func TestApplicationChangesScan(t *testing.T) {
	changes := dbmodels.ApplicationChanges{
		Description: "Смена этапа",
		Data: []dbmodels.ApplicationChange{
			{Field: "current_stage", OldValue: "applied", NewValue: "interview"},
		},
	}
	value, err := changes.Value()
	require.NoError(t, err)

	restored := dbmodels.ApplicationChanges{}
	require.NoError(t, restored.Scan([]byte(value.(string))))
	require.Equal(t, changes, restored)

	require.Error(t, restored.Scan(42))
}
