package pipelineapimodels

import (
	dbmodels "job-pipeline-backend/models/db"
	"time"
)

type ApplicationHistoryView struct {
	ID         string                      `json:"id"`
	CreatedAt  time.Time                   `json:"created_at"`
	ActionType dbmodels.ActionType         `json:"action_type"`
	Changes    dbmodels.ApplicationChanges `json:"changes"`
}

func ConvertHistory(rec dbmodels.ApplicationHistory) ApplicationHistoryView {
	return ApplicationHistoryView{
		ID:         rec.ID,
		CreatedAt:  rec.CreatedAt,
		ActionType: rec.ActionType,
		Changes:    rec.Changes,
	}
}
