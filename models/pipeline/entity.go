package pipelinemodels

import (
	"job-pipeline-backend/models"
	"time"
)

// Entity отслеживаемый отклик на вакансию.
// HighWaterStage - самый дальний этап, которого отклик когда-либо достигал.
type Entity struct {
	ID             string                  `json:"id"`
	CurrentStage   models.ApplicationStage `json:"current_stage"`
	HighWaterStage models.ApplicationStage `json:"high_water_stage"`
	StageChangedAt time.Time               `json:"stage_changed_at"`
	Payload        Payload                 `json:"payload"`
}

// Payload данные отклика, движку они не интересны
type Payload struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
	Salary   int    `json:"salary"`
}

// StageUpdate ответ удаленного хранилища на смену этапа
type StageUpdate struct {
	ID             string
	CurrentStage   models.ApplicationStage
	StageChangedAt time.Time
}

// DeleteOutcome ответ удаленного хранилища на удаление
type DeleteOutcome struct {
	Succeeded []string
	Failed    []string
}
