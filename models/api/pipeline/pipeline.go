package pipelineapimodels

import (
	"strings"

	"job-pipeline-backend/lib/pipeline/funnel"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"

	"github.com/pkg/errors"
)

type ApplicationData struct {
	Stage    models.ApplicationStage `json:"stage"`    // этап, по умолчанию первый
	Company  string                  `json:"company"`  // компания
	Position string                  `json:"position"` // должность
	Location string                  `json:"location"` // город
	URL      string                  `json:"url"`      // ссылка на вакансию
	Notes    string                  `json:"notes"`    // заметки
	Salary   int                     `json:"salary"`   // зарплата
}

func (a ApplicationData) Validate() error {
	if strings.TrimSpace(a.Company) == "" {
		return errors.New("не указана компания")
	}
	if strings.TrimSpace(a.Position) == "" {
		return errors.New("не указана должность")
	}
	if a.Salary < 0 {
		return errors.New("зарплата не может быть отрицательной")
	}
	return nil
}

func (a ApplicationData) ToPayload() pipelinemodels.Payload {
	return pipelinemodels.Payload{
		Company:  strings.TrimSpace(a.Company),
		Position: strings.TrimSpace(a.Position),
		Location: a.Location,
		URL:      a.URL,
		Notes:    a.Notes,
		Salary:   a.Salary,
	}
}

type MultiChangeStageRequest struct {
	IDs   []string                `json:"ids"`   // идентификаторы откликов
	Stage models.ApplicationStage `json:"stage"` // новый этап
}

func (r MultiChangeStageRequest) Validate() error {
	if len(r.IDs) == 0 {
		return errors.New("не указан список откликов")
	}
	if r.Stage == "" {
		return errors.New("не указан этап")
	}
	return nil
}

type MultiDeleteRequest struct {
	IDs []string `json:"ids"` // идентификаторы откликов
}

func (r MultiDeleteRequest) Validate() error {
	if len(r.IDs) == 0 {
		return errors.New("не указан список откликов")
	}
	return nil
}

type StageView struct {
	Stage         models.ApplicationStage   `json:"stage"`
	Title         string                    `json:"title"`
	Ordinal       int                       `json:"ordinal"`
	Progressing   bool                      `json:"progressing"`   // false для отказа и отзыва
	Prerequisites []models.ApplicationStage `json:"prerequisites"` // этапы, которые засчитываются при достижении этого
}

type FunnelView struct {
	Version uint64      `json:"version"` // растет с каждым изменением набора откликов
	View    funnel.View `json:"view"`
}

type StageCount struct {
	Stage models.ApplicationStage `json:"stage"`
	Title string                  `json:"title"`
	Count int                     `json:"count"`
}

// StageCounts в порядке этапов
func StageCounts(stages []models.ApplicationStage, counts map[models.ApplicationStage]int) []StageCount {
	result := make([]StageCount, 0, len(stages))
	for _, stage := range stages {
		result = append(result, StageCount{
			Stage: stage,
			Title: stage.Title(),
			Count: counts[stage],
		})
	}
	return result
}
