package pdfexport

import (
	"bytes"
	"job-pipeline-backend/lib/pipeline/funnel"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFunnelReport(t *testing.T) {
	schema := stageschema.Default()
	list := []pipelinemodels.Entity{
		{ID: "1", CurrentStage: models.StageApplied, HighWaterStage: models.StageApplied},
		{ID: "2", CurrentStage: models.StageRejected, HighWaterStage: models.StageInterview},
	}
	view := funnel.Compute(schema, list)

	t.Run(`built-in font`, func(t *testing.T) {
		buf, err := newImpl("").FunnelReport(schema.Stages(), view, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	})
	t.Run(`font dir without fonts`, func(t *testing.T) {
		instance := newImpl(t.TempDir())
		require.Empty(t, instance.fontDir)
		require.Equal(t, "Stage", instance.labels.stage)
		buf, err := instance.FunnelReport(schema.Stages(), view, time.Now())
		require.NoError(t, err)
		require.NotZero(t, buf.Len())
	})
}
