package pipelinemodels

type EventKind string

const (
	EventOptimistic EventKind = "optimistic"  // изменение применено локально, ждем подтверждения
	EventCommitted  EventKind = "committed"   // удаленное хранилище подтвердило изменение
	EventRolledBack EventKind = "rolled_back" // изменение отменено после ошибки сохранения
	EventRefreshed  EventKind = "refreshed"   // полная синхронизация с удаленным хранилищем
)

// Change что именно поменялось в хранилище откликов
type Change struct {
	Kind     EventKind    `json:"kind"`
	Mutation MutationKind `json:"mutation,omitempty"`
	IDs      []string     `json:"ids,omitempty"`
}
