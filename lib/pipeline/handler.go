package pipeline

import (
	"context"
	"job-pipeline-backend/lib/pipeline/coordinator"
	entitystore "job-pipeline-backend/lib/pipeline/entity-store"
	"job-pipeline-backend/lib/pipeline/funnel"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type Provider interface {
	Refresh(ctx context.Context) error
	Dispose()

	MoveEntity(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.MoveResult, error)
	BulkMove(ctx context.Context, ids []string, stage models.ApplicationStage) (pipelinemodels.BulkResult, error)
	DeleteEntities(ctx context.Context, ids []string) (pipelinemodels.BulkResult, error)
	AddEntity(ctx context.Context, payload pipelinemodels.Payload, stage models.ApplicationStage) (pipelinemodels.Entity, error)

	CurrentDistribution() map[models.ApplicationStage]int
	CumulativeFunnel() map[models.ApplicationStage]int
	ConversionRates() []funnel.Conversion
	Funnel() (funnel.View, uint64)
	EntitiesByStage(stage models.ApplicationStage) ([]pipelinemodels.Entity, error)
	Entity(id string) (pipelinemodels.Entity, bool)
	All() []pipelinemodels.Entity
	Schema() *stageschema.Schema

	Subscribe(fn func(Event)) (unsubscribe func())
}

// Event уведомление подписчика. View - агрегаты сразу после изменения.
type Event struct {
	Version  uint64                      `json:"version"`
	Kind     pipelinemodels.EventKind    `json:"kind"`
	Mutation pipelinemodels.MutationKind `json:"mutation,omitempty"`
	IDs      []string                    `json:"ids,omitempty"`
	View     funnel.View                 `json:"view"`
}

type Option func(o *options)

type options struct {
	schema      *stageschema.Schema
	coordinator []coordinator.Option
}

func WithSchema(schema *stageschema.Schema) Option {
	return func(o *options) {
		o.schema = schema
	}
}

func WithBulkConcurrency(limit int) Option {
	return func(o *options) {
		o.coordinator = append(o.coordinator, coordinator.WithBulkConcurrency(limit))
	}
}

func WithCommitTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.coordinator = append(o.coordinator, coordinator.WithCommitTimeout(timeout))
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.coordinator = append(o.coordinator, coordinator.WithClock(now))
	}
}

// New создает движок с пустым набором откликов. Данные загружаются через Refresh.
func New(remote coordinator.RemoteSync, opts ...Option) Provider {
	o := options{schema: stageschema.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.WithField("component", "pipeline_engine")
	instance := &impl{
		schema:   o.schema,
		view:     funnel.Compute(o.schema, nil),
		notifier: newNotifier(logger),
		logger:   logger,
	}
	instance.coordinator = coordinator.NewInstance(o.schema, remote, instance.onChange, o.coordinator...)
	exportView(instance.view)
	return instance
}

type impl struct {
	schema      *stageschema.Schema
	coordinator coordinator.Provider
	notifier    *notifier
	logger      *log.Entry

	viewMu  sync.RWMutex
	view    funnel.View
	version uint64

	disposeOnce sync.Once
}

func (i *impl) Refresh(ctx context.Context) error {
	return i.coordinator.Refresh(ctx)
}

// Dispose ждет завершения коммитов в полете и доставляет оставшиеся события
func (i *impl) Dispose() {
	i.disposeOnce.Do(func() {
		i.coordinator.Dispose()
		i.notifier.close()
		i.logger.Info("движок воронки остановлен")
	})
}

func (i *impl) MoveEntity(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.MoveResult, error) {
	return i.coordinator.MoveEntity(ctx, id, stage)
}

func (i *impl) BulkMove(ctx context.Context, ids []string, stage models.ApplicationStage) (pipelinemodels.BulkResult, error) {
	return i.coordinator.BulkMove(ctx, ids, stage)
}

func (i *impl) DeleteEntities(ctx context.Context, ids []string) (pipelinemodels.BulkResult, error) {
	return i.coordinator.DeleteEntities(ctx, ids)
}

func (i *impl) AddEntity(ctx context.Context, payload pipelinemodels.Payload, stage models.ApplicationStage) (pipelinemodels.Entity, error) {
	return i.coordinator.AddEntity(ctx, payload, stage)
}

func (i *impl) CurrentDistribution() map[models.ApplicationStage]int {
	view, _ := i.Funnel()
	return view.Current
}

func (i *impl) CumulativeFunnel() map[models.ApplicationStage]int {
	view, _ := i.Funnel()
	return view.Cumulative
}

func (i *impl) ConversionRates() []funnel.Conversion {
	view, _ := i.Funnel()
	return view.Conversions
}

// Funnel копия агрегатов и версия, на которой они посчитаны
func (i *impl) Funnel() (funnel.View, uint64) {
	i.viewMu.RLock()
	defer i.viewMu.RUnlock()
	return i.view.Copy(), i.version
}

func (i *impl) EntitiesByStage(stage models.ApplicationStage) ([]pipelinemodels.Entity, error) {
	return i.coordinator.EntitiesByStage(stage)
}

func (i *impl) Entity(id string) (pipelinemodels.Entity, bool) {
	return i.coordinator.Entity(id)
}

// All снимок всех откликов по возрастанию id
func (i *impl) All() []pipelinemodels.Entity {
	return i.coordinator.All()
}

func (i *impl) Schema() *stageschema.Schema {
	return i.schema
}

func (i *impl) Subscribe(fn func(Event)) func() {
	return i.notifier.subscribe(fn)
}

// onChange вызывается координатором под его мьютексом, поэтому версии
// агрегатов идут в том же порядке, что и изменения хранилища
func (i *impl) onChange(change pipelinemodels.Change, store entitystore.Provider) {
	view := funnel.Compute(i.schema, store.All())

	i.viewMu.Lock()
	i.version++
	i.view = view
	version := i.version
	i.viewMu.Unlock()

	exportView(view)
	i.notifier.publish(Event{
		Version:  version,
		Kind:     change.Kind,
		Mutation: change.Mutation,
		IDs:      change.IDs,
		View:     view.Copy(),
	})
}
