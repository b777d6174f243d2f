package stageschema

import "job-pipeline-backend/models"

// Schema упорядоченный неизменяемый справочник этапов воронки.
type Schema struct {
	stages      []models.ApplicationStage
	ordinals    map[models.ApplicationStage]int
	exits       map[models.ApplicationStage]bool
	progressing []models.ApplicationStage
}

var defaultSchema = New(
	[]models.ApplicationStage{
		models.StageInterested,
		models.StageApplied,
		models.StagePhoneScreen,
		models.StageInterview,
		models.StageOffer,
		models.StageRejected,
		models.StageWithdrawn,
	},
	models.StageRejected,
	models.StageWithdrawn,
)

// Default этапы трекера откликов: Interested .. Offer и два выхода Rejected/Withdrawn
func Default() *Schema {
	return defaultSchema
}

// New порядок stages задает порядковые номера, exits - непрогрессирующие этапы
func New(stages []models.ApplicationStage, exits ...models.ApplicationStage) *Schema {
	s := &Schema{
		stages:   append([]models.ApplicationStage(nil), stages...),
		ordinals: make(map[models.ApplicationStage]int, len(stages)),
		exits:    make(map[models.ApplicationStage]bool, len(exits)),
	}
	for idx, stage := range s.stages {
		s.ordinals[stage] = idx
	}
	for _, stage := range exits {
		s.exits[stage] = true
	}
	for _, stage := range s.stages {
		if !s.exits[stage] {
			s.progressing = append(s.progressing, stage)
		}
	}
	return s
}

// Ordinal порядковый номер этапа, -1 для неизвестного
func (s *Schema) Ordinal(stage models.ApplicationStage) int {
	if ord, ok := s.ordinals[stage]; ok {
		return ord
	}
	return -1
}

func (s *Schema) Contains(stage models.ApplicationStage) bool {
	_, ok := s.ordinals[stage]
	return ok
}

func (s *Schema) IsProgressing(stage models.ApplicationStage) bool {
	return s.Contains(stage) && !s.exits[stage]
}

// IsValidTransition разрешены любые переходы между известными этапами,
// в том числе назад: пользователь исправляет ошибочно перемещенные отклики
func (s *Schema) IsValidTransition(from, to models.ApplicationStage) bool {
	return s.Contains(from) && s.Contains(to)
}

// Prerequisites этапы, которые считаются пройденными при достижении stage.
// Для выходов пусто: отказ ничего не говорит о пройденных этапах.
func (s *Schema) Prerequisites(stage models.ApplicationStage) []models.ApplicationStage {
	if !s.IsProgressing(stage) {
		return nil
	}
	ord := s.Ordinal(stage)
	result := []models.ApplicationStage{}
	for _, item := range s.progressing {
		if s.Ordinal(item) < ord {
			result = append(result, item)
		}
	}
	return result
}

func (s *Schema) Stages() []models.ApplicationStage {
	return append([]models.ApplicationStage(nil), s.stages...)
}

func (s *Schema) Progressing() []models.ApplicationStage {
	return append([]models.ApplicationStage(nil), s.progressing...)
}

// Entry первый прогрессирующий этап
func (s *Schema) Entry() models.ApplicationStage {
	if len(s.progressing) == 0 {
		return ""
	}
	return s.progressing[0]
}

// Higher больший из двух этапов; неизвестный этап проигрывает
func (s *Schema) Higher(a, b models.ApplicationStage) models.ApplicationStage {
	if s.Ordinal(b) > s.Ordinal(a) {
		return b
	}
	return a
}
