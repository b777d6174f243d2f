package pipelinemodels

import "job-pipeline-backend/models"

type MutationState string

const (
	MutationProposed   MutationState = "proposed"
	MutationOptimistic MutationState = "optimistic"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
	MutationSuperseded MutationState = "superseded" // ответ устарел и отброшен
)

type MutationKind string

const (
	MutationMove   MutationKind = "move"
	MutationDelete MutationKind = "delete"
	MutationAdd    MutationKind = "add"
)

// Mutation намерение вызывающей стороны, возвращается при ошибке для повтора
type Mutation struct {
	Kind     MutationKind            `json:"kind"`
	EntityID string                  `json:"entity_id"`
	From     models.ApplicationStage `json:"from,omitempty"`
	To       models.ApplicationStage `json:"to,omitempty"`
}

type MoveResult struct {
	Mutation Mutation      `json:"mutation"`
	State    MutationState `json:"state"`
	Entity   Entity        `json:"entity"`
}

type FailedItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// BulkResult результат групповой операции, частичный отказ возможен
type BulkResult struct {
	Succeeded  []string     `json:"succeeded"`
	Superseded []string     `json:"superseded,omitempty"`
	Failed     []FailedItem `json:"failed"`
}

func (r BulkResult) HasFailures() bool {
	return len(r.Failed) != 0
}

func (r BulkResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, item := range r.Failed {
		ids = append(ids, item.ID)
	}
	return ids
}
