package coordinator

import (
	"context"
	entitystore "job-pipeline-backend/lib/pipeline/entity-store"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"sync"
	"time"

	"github.com/pkg/errors"
)

var errRemote = errors.New("remote unavailable")

var serverTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeRemote удаленное хранилище в памяти с управляемыми ответами
type fakeRemote struct {
	mu       sync.Mutex
	records  map[string]pipelinemodels.Entity
	updateFn func(ctx context.Context, id string, stage models.ApplicationStage) error
	deleteFn func(ids []string) (pipelinemodels.DeleteOutcome, error)
	createFn func(rec pipelinemodels.Entity) error
	calls    []string
}

func newFakeRemote(list ...pipelinemodels.Entity) *fakeRemote {
	f := &fakeRemote{records: map[string]pipelinemodels.Entity{}}
	for _, rec := range list {
		f.records[rec.ID] = rec
	}
	return f
}

func (f *fakeRemote) List(ctx context.Context) ([]pipelinemodels.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := make([]pipelinemodels.Entity, 0, len(f.records))
	for _, rec := range f.records {
		// удаленная сторона знает только текущий этап
		list = append(list, pipelinemodels.Entity{
			ID:             rec.ID,
			CurrentStage:   rec.CurrentStage,
			StageChangedAt: rec.StageChangedAt,
			Payload:        rec.Payload,
		})
	}
	return list, nil
}

func (f *fakeRemote) UpdateStage(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.StageUpdate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id+":"+string(stage))
	fn := f.updateFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(ctx, id, stage); err != nil {
			return pipelinemodels.StageUpdate{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return pipelinemodels.StageUpdate{}, errors.New("not found")
	}
	rec.CurrentStage = stage
	rec.StageChangedAt = serverTime
	f.records[id] = rec
	return pipelinemodels.StageUpdate{ID: id, CurrentStage: stage, StageChangedAt: serverTime}, nil
}

func (f *fakeRemote) DeleteMany(ctx context.Context, ids []string) (pipelinemodels.DeleteOutcome, error) {
	f.mu.Lock()
	fn := f.deleteFn
	f.mu.Unlock()
	if fn != nil {
		outcome, err := fn(ids)
		if err != nil {
			return outcome, err
		}
		f.mu.Lock()
		for _, id := range outcome.Succeeded {
			delete(f.records, id)
		}
		f.mu.Unlock()
		return outcome, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome := pipelinemodels.DeleteOutcome{}
	for _, id := range ids {
		if _, ok := f.records[id]; ok {
			delete(f.records, id)
			outcome.Succeeded = append(outcome.Succeeded, id)
		} else {
			outcome.Failed = append(outcome.Failed, id)
		}
	}
	return outcome, nil
}

func (f *fakeRemote) Create(ctx context.Context, rec pipelinemodels.Entity) (pipelinemodels.Entity, error) {
	f.mu.Lock()
	fn := f.createFn
	f.mu.Unlock()
	if fn != nil {
		if err := fn(rec); err != nil {
			return pipelinemodels.Entity{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.StageChangedAt = serverTime
	f.records[rec.ID] = rec
	return rec, nil
}

func (f *fakeRemote) setStage(id string, stage models.ApplicationStage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec := f.records[id]
	rec.CurrentStage = stage
	f.records[id] = rec
}

func (f *fakeRemote) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[id]
	return ok
}

// changeLog собирает уведомления координатора
type changeLog struct {
	mu      sync.Mutex
	changes []pipelinemodels.Change
}

func (l *changeLog) hook() ChangeFunc {
	return func(change pipelinemodels.Change, _ entitystore.Provider) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.changes = append(l.changes, change)
	}
}

func (l *changeLog) kinds() []pipelinemodels.EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := []pipelinemodels.EventKind{}
	for _, change := range l.changes {
		result = append(result, change.Kind)
	}
	return result
}
