package dbmodels

import (
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"time"
)

// Application отклик на вакансию в воронке
type Application struct {
	BaseModel
	CurrentStage   models.ApplicationStage `gorm:"type:varchar(32);index"`
	HighWaterStage models.ApplicationStage `gorm:"type:varchar(32)"` // максимальный достигнутый этап
	StageChangedAt time.Time
	Company        string `gorm:"type:varchar(255)"`
	Position       string `gorm:"type:varchar(255)"`
	Location       string `gorm:"type:varchar(255)"`
	URL            string
	Notes          string `gorm:"type:text"`
	Salary         int
}

func (r Application) ToEntity() pipelinemodels.Entity {
	return pipelinemodels.Entity{
		ID:             r.ID,
		CurrentStage:   r.CurrentStage,
		HighWaterStage: r.HighWaterStage,
		StageChangedAt: r.StageChangedAt,
		Payload: pipelinemodels.Payload{
			Company:  r.Company,
			Position: r.Position,
			Location: r.Location,
			URL:      r.URL,
			Notes:    r.Notes,
			Salary:   r.Salary,
		},
	}
}

func NewApplication(rec pipelinemodels.Entity) Application {
	return Application{
		BaseModel: BaseModel{
			ID: rec.ID,
		},
		CurrentStage:   rec.CurrentStage,
		HighWaterStage: rec.HighWaterStage,
		StageChangedAt: rec.StageChangedAt,
		Company:        rec.Payload.Company,
		Position:       rec.Payload.Position,
		Location:       rec.Payload.Location,
		URL:            rec.Payload.URL,
		Notes:          rec.Payload.Notes,
		Salary:         rec.Payload.Salary,
	}
}
