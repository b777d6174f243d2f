package funnel

import (
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
)

// View статистика по воронке, всегда пересчитывается из хранилища
type View struct {
	Total       int                             `json:"total"`
	Current     map[models.ApplicationStage]int `json:"current"`    // сколько откликов сейчас на этапе
	Cumulative  map[models.ApplicationStage]int `json:"cumulative"` // сколько откликов когда-либо достигли этапа
	Conversions []Conversion                    `json:"conversions"`
}

// Conversion конверсия между соседними прогрессирующими этапами
type Conversion struct {
	From models.ApplicationStage `json:"from"`
	To   models.ApplicationStage `json:"to"`
	Rate float64                 `json:"rate"`
}

// Compute один проход по откликам.
// Прогрессирующий этап S засчитывается отклику, если его отметка максимального
// этапа не ниже S. Выходы (отказ, отзыв) считаются только по текущему этапу.
func Compute(schema *stageschema.Schema, list []pipelinemodels.Entity) View {
	view := View{
		Total:      len(list),
		Current:    make(map[models.ApplicationStage]int, len(schema.Stages())),
		Cumulative: make(map[models.ApplicationStage]int, len(schema.Stages())),
	}
	for _, stage := range schema.Stages() {
		view.Current[stage] = 0
		view.Cumulative[stage] = 0
	}
	progressing := schema.Progressing()
	for _, rec := range list {
		if schema.Contains(rec.CurrentStage) {
			view.Current[rec.CurrentStage]++
			if !schema.IsProgressing(rec.CurrentStage) {
				view.Cumulative[rec.CurrentStage]++
			}
		}
		if !schema.IsProgressing(rec.HighWaterStage) {
			continue
		}
		highWater := schema.Ordinal(rec.HighWaterStage)
		for _, stage := range progressing {
			if schema.Ordinal(stage) > highWater {
				break
			}
			view.Cumulative[stage]++
		}
	}
	view.Conversions = make([]Conversion, 0, len(progressing))
	for idx := 1; idx < len(progressing); idx++ {
		from, to := progressing[idx-1], progressing[idx]
		view.Conversions = append(view.Conversions, Conversion{
			From: from,
			To:   to,
			Rate: Rate(view.Cumulative[to], view.Cumulative[from]),
		})
	}
	return view
}

// Rate 0 при нулевом знаменателе
func Rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Copy глубокая копия, чтобы подписчики не делили карты с кешем
func (v View) Copy() View {
	result := View{
		Total:      v.Total,
		Current:    make(map[models.ApplicationStage]int, len(v.Current)),
		Cumulative: make(map[models.ApplicationStage]int, len(v.Cumulative)),
	}
	if v.Conversions != nil {
		result.Conversions = make([]Conversion, len(v.Conversions))
		copy(result.Conversions, v.Conversions)
	}
	for stage, count := range v.Current {
		result.Current[stage] = count
	}
	for stage, count := range v.Cumulative {
		result.Cumulative[stage] = count
	}
	return result
}
