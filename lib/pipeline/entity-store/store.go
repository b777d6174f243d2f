package entitystore

import (
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"sort"
)

// Provider хранилище откликов в памяти вместе с индексом по текущему этапу.
// Индекс меняется в том же вызове, что и запись, промежуточных состояний нет.
// Не потокобезопасно, владелец - координатор мутаций.
type Provider interface {
	Get(id string) (pipelinemodels.Entity, bool)
	All() []pipelinemodels.Entity
	Upsert(rec pipelinemodels.Entity)
	Remove(id string) (pipelinemodels.Entity, bool)
	ReplaceAll(list []pipelinemodels.Entity)
	IDsByStage(stage models.ApplicationStage) []string
	Len() int
}

func NewInstance(schema *stageschema.Schema) Provider {
	return &impl{
		schema:   schema,
		entities: map[string]pipelinemodels.Entity{},
		index:    map[models.ApplicationStage]map[string]struct{}{},
	}
}

type impl struct {
	schema   *stageschema.Schema
	entities map[string]pipelinemodels.Entity
	index    map[models.ApplicationStage]map[string]struct{}
}

func (i *impl) Get(id string) (pipelinemodels.Entity, bool) {
	rec, ok := i.entities[id]
	return rec, ok
}

func (i *impl) All() []pipelinemodels.Entity {
	list := make([]pipelinemodels.Entity, 0, len(i.entities))
	for _, rec := range i.entities {
		list = append(list, rec)
	}
	sort.Slice(list, func(a, b int) bool {
		return list[a].ID < list[b].ID
	})
	return list
}

func (i *impl) Upsert(rec pipelinemodels.Entity) {
	if old, ok := i.entities[rec.ID]; ok {
		i.unindex(old)
	}
	i.entities[rec.ID] = rec
	i.addIndex(rec)
}

func (i *impl) Remove(id string) (pipelinemodels.Entity, bool) {
	rec, ok := i.entities[id]
	if !ok {
		return pipelinemodels.Entity{}, false
	}
	delete(i.entities, id)
	i.unindex(rec)
	return rec, true
}

// ReplaceAll полная замена содержимого.
// Удаленное хранилище может не знать историю, поэтому уже известная отметка
// максимального этапа не понижается.
func (i *impl) ReplaceAll(list []pipelinemodels.Entity) {
	entities := make(map[string]pipelinemodels.Entity, len(list))
	for _, rec := range list {
		highWater := models.ApplicationStage("")
		if old, ok := i.entities[rec.ID]; ok {
			highWater = old.HighWaterStage
		}
		if i.schema.IsProgressing(rec.HighWaterStage) {
			highWater = i.schema.Higher(highWater, rec.HighWaterStage)
		}
		if i.schema.IsProgressing(rec.CurrentStage) {
			highWater = i.schema.Higher(highWater, rec.CurrentStage)
		}
		if highWater == "" {
			highWater = i.schema.Entry()
		}
		rec.HighWaterStage = highWater
		entities[rec.ID] = rec
	}
	i.entities = entities
	i.index = map[models.ApplicationStage]map[string]struct{}{}
	for _, rec := range i.entities {
		i.addIndex(rec)
	}
}

func (i *impl) IDsByStage(stage models.ApplicationStage) []string {
	bucket := i.index[stage]
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (i *impl) Len() int {
	return len(i.entities)
}

func (i *impl) addIndex(rec pipelinemodels.Entity) {
	bucket, ok := i.index[rec.CurrentStage]
	if !ok {
		bucket = map[string]struct{}{}
		i.index[rec.CurrentStage] = bucket
	}
	bucket[rec.ID] = struct{}{}
}

func (i *impl) unindex(rec pipelinemodels.Entity) {
	bucket, ok := i.index[rec.CurrentStage]
	if !ok {
		return
	}
	delete(bucket, rec.ID)
	if len(bucket) == 0 {
		delete(i.index, rec.CurrentStage)
	}
}
