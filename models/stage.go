package models

type ApplicationStage string

const (
	StageInterested  ApplicationStage = "interested"   // Интересная вакансия
	StageApplied     ApplicationStage = "applied"      // Отклик отправлен
	StagePhoneScreen ApplicationStage = "phone_screen" // Телефонный скрининг
	StageInterview   ApplicationStage = "interview"    // Интервью
	StageOffer       ApplicationStage = "offer"        // Оффер
	StageRejected    ApplicationStage = "rejected"     // Отказ
	StageWithdrawn   ApplicationStage = "withdrawn"    // Отозван кандидатом
)

func (s ApplicationStage) String() string {
	return string(s)
}

// StageTitles названия этапов для выгрузок
var StageTitles = map[ApplicationStage]string{
	StageInterested:  "Интересует",
	StageApplied:     "Отклик",
	StagePhoneScreen: "Телефонный скрининг",
	StageInterview:   "Интервью",
	StageOffer:       "Оффер",
	StageRejected:    "Отказ",
	StageWithdrawn:   "Отозван",
}

func (s ApplicationStage) Title() string {
	if title, ok := StageTitles[s]; ok {
		return title
	}
	return string(s)
}
