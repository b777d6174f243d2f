package coordinator

import (
	"context"
	entitystore "job-pipeline-backend/lib/pipeline/entity-store"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RemoteSync авторитетное хранилище откликов
type RemoteSync interface {
	List(ctx context.Context) ([]pipelinemodels.Entity, error)
	UpdateStage(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.StageUpdate, error)
	DeleteMany(ctx context.Context, ids []string) (pipelinemodels.DeleteOutcome, error)
}

// EntityCreator необязательная часть RemoteSync для добавления откликов
type EntityCreator interface {
	Create(ctx context.Context, rec pipelinemodels.Entity) (pipelinemodels.Entity, error)
}

// ChangeFunc вызывается синхронно под мьютексом координатора после каждого
// изменения хранилища. Хранилище можно только читать.
type ChangeFunc func(change pipelinemodels.Change, store entitystore.Provider)

// Provider единственная точка изменения хранилища откликов
type Provider interface {
	MoveEntity(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.MoveResult, error)
	BulkMove(ctx context.Context, ids []string, stage models.ApplicationStage) (pipelinemodels.BulkResult, error)
	DeleteEntities(ctx context.Context, ids []string) (pipelinemodels.BulkResult, error)
	AddEntity(ctx context.Context, payload pipelinemodels.Payload, stage models.ApplicationStage) (pipelinemodels.Entity, error)
	Refresh(ctx context.Context) error
	Entity(id string) (pipelinemodels.Entity, bool)
	EntitiesByStage(stage models.ApplicationStage) ([]pipelinemodels.Entity, error)
	All() []pipelinemodels.Entity
	Dispose()
}

type Option func(i *impl)

// WithBulkConcurrency ограничение одновременных коммитов групповой операции
func WithBulkConcurrency(limit int) Option {
	return func(i *impl) {
		i.bulkLimit = limit
	}
}

// WithCommitTimeout таймаут одного обращения к удаленному хранилищу
func WithCommitTimeout(timeout time.Duration) Option {
	return func(i *impl) {
		i.commitTimeout = timeout
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *impl) {
		i.now = now
	}
}

func NewInstance(schema *stageschema.Schema, remote RemoteSync, onChange ChangeFunc, opts ...Option) Provider {
	instance := &impl{
		schema:    schema,
		store:     entitystore.NewInstance(schema),
		remote:    remote,
		onChange:  onChange,
		states:    map[string]*entityState{},
		bulkLimit: 4,
		now:       time.Now,
		logger:    log.WithField("component", "pipeline_coordinator"),
	}
	for _, opt := range opts {
		opt(instance)
	}
	return instance
}

type impl struct {
	mu            sync.Mutex
	schema        *stageschema.Schema
	store         entitystore.Provider
	remote        RemoteSync
	onChange      ChangeFunc
	states        map[string]*entityState // только отклики с незавершенными коммитами
	bulkLimit     int
	commitTimeout time.Duration
	now           func() time.Time
	disposed      bool
	wg            sync.WaitGroup
	logger        *log.Entry
}

// entityState последовательность коммитов одного отклика.
// confirmed - последнее подтвержденное удаленным хранилищем состояние,
// к нему откатываемся при ошибке.
type entityState struct {
	seq       uint64
	inFlight  int
	confirmed pipelinemodels.Entity
	exists    bool
	tail      chan struct{}
}

// ticket один коммит: seq - токен, prev закрывается по завершении предыдущего
// коммита этого же отклика
type ticket struct {
	id   string
	st   *entityState
	seq  uint64
	prev <-chan struct{}
	done chan struct{}
}

type moveOutcome struct {
	result pipelinemodels.MoveResult
	err    error
}

func (i *impl) MoveEntity(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.MoveResult, error) {
	if !i.schema.Contains(stage) {
		return pipelinemodels.MoveResult{}, errors.Wrapf(ErrInvalidStage, "этап %q", stage)
	}
	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return pipelinemodels.MoveResult{}, ErrDisposed
	}
	rec, ok := i.store.Get(id)
	if !ok {
		i.mu.Unlock()
		return pipelinemodels.MoveResult{}, errors.Wrapf(ErrEntityNotFound, "id %s", id)
	}
	if i.schema.Contains(rec.CurrentStage) && !i.schema.IsValidTransition(rec.CurrentStage, stage) {
		i.mu.Unlock()
		return pipelinemodels.MoveResult{}, errors.Wrapf(ErrInvalidStage, "переход %s -> %s", rec.CurrentStage, stage)
	}
	mutation := pipelinemodels.Mutation{
		Kind:     pipelinemodels.MutationMove,
		EntityID: id,
		From:     rec.CurrentStage,
		To:       stage,
	}
	t := i.begin(id, rec, true)
	optimistic := i.applyStage(rec, stage, i.now())
	i.store.Upsert(optimistic)
	i.notify(pipelinemodels.EventOptimistic, pipelinemodels.MutationMove, id)
	i.wg.Add(1)
	i.mu.Unlock()

	outCh := make(chan moveOutcome, 1)
	go func() {
		defer i.wg.Done()
		result, err := i.commitMove(ctx, t, mutation)
		outCh <- moveOutcome{result: result, err: err}
	}()
	select {
	case out := <-outCh:
		return out.result, out.err
	case <-ctx.Done():
		// коммит завершится в фоне, его результат применится по общим правилам
		return pipelinemodels.MoveResult{
			Mutation: mutation,
			State:    pipelinemodels.MutationOptimistic,
			Entity:   optimistic,
		}, ctx.Err()
	}
}

func (i *impl) BulkMove(ctx context.Context, ids []string, stage models.ApplicationStage) (pipelinemodels.BulkResult, error) {
	if !i.schema.Contains(stage) {
		return pipelinemodels.BulkResult{}, errors.Wrapf(ErrInvalidStage, "этап %q", stage)
	}
	result := newBulkResult()
	type job struct {
		t        *ticket
		mutation pipelinemodels.Mutation
	}
	jobs := []job{}

	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return result, ErrDisposed
	}
	now := i.now()
	movedIDs := []string{}
	for _, id := range uniqueIDs(ids) {
		rec, ok := i.store.Get(id)
		if !ok {
			result.Failed = append(result.Failed, failedItem(id, errors.Wrapf(ErrEntityNotFound, "id %s", id)))
			continue
		}
		mutation := pipelinemodels.Mutation{
			Kind:     pipelinemodels.MutationMove,
			EntityID: id,
			From:     rec.CurrentStage,
			To:       stage,
		}
		t := i.begin(id, rec, true)
		i.store.Upsert(i.applyStage(rec, stage, now))
		jobs = append(jobs, job{t: t, mutation: mutation})
		movedIDs = append(movedIDs, id)
	}
	if len(jobs) == 0 {
		i.mu.Unlock()
		return result, nil
	}
	i.notify(pipelinemodels.EventOptimistic, pipelinemodels.MutationMove, movedIDs...)
	i.wg.Add(1)
	i.mu.Unlock()

	outcomes := make([]moveOutcome, len(jobs))
	done := make(chan struct{})
	go func() {
		defer i.wg.Done()
		defer close(done)
		g := errgroup.Group{}
		g.SetLimit(i.bulkLimit)
		for idx := range jobs {
			idx := idx
			g.Go(func() error {
				res, err := i.commitMove(ctx, jobs[idx].t, jobs[idx].mutation)
				outcomes[idx] = moveOutcome{result: res, err: err}
				return nil
			})
		}
		_ = g.Wait()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return result, ctx.Err()
	}

	for idx, out := range outcomes {
		id := jobs[idx].t.id
		switch {
		case out.err != nil:
			result.Failed = append(result.Failed, failedItem(id, out.err))
		case out.result.State == pipelinemodels.MutationSuperseded:
			result.Superseded = append(result.Superseded, id)
		default:
			result.Succeeded = append(result.Succeeded, id)
		}
	}
	if result.HasFailures() {
		i.logger.
			WithField("stage", stage).
			WithField("failed_ids", result.FailedIDs()).
			Warn("групповая смена этапа выполнена частично")
	}
	return result, nil
}

func (i *impl) DeleteEntities(ctx context.Context, ids []string) (pipelinemodels.BulkResult, error) {
	result := newBulkResult()
	tickets := []*ticket{}

	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return result, ErrDisposed
	}
	removedIDs := []string{}
	for _, id := range uniqueIDs(ids) {
		rec, ok := i.store.Get(id)
		if !ok {
			result.Failed = append(result.Failed, failedItem(id, errors.Wrapf(ErrEntityNotFound, "id %s", id)))
			continue
		}
		tickets = append(tickets, i.begin(id, rec, true))
		i.store.Remove(id)
		removedIDs = append(removedIDs, id)
	}
	if len(tickets) == 0 {
		i.mu.Unlock()
		return result, nil
	}
	i.notify(pipelinemodels.EventOptimistic, pipelinemodels.MutationDelete, removedIDs...)
	i.wg.Add(1)
	i.mu.Unlock()

	outCh := make(chan pipelinemodels.BulkResult, 1)
	go func() {
		defer i.wg.Done()
		outCh <- i.commitDelete(ctx, tickets)
	}()
	select {
	case out := <-outCh:
		result.Succeeded = append(result.Succeeded, out.Succeeded...)
		result.Superseded = append(result.Superseded, out.Superseded...)
		result.Failed = append(result.Failed, out.Failed...)
	case <-ctx.Done():
		return result, ctx.Err()
	}
	if result.HasFailures() {
		i.logger.WithField("failed_ids", result.FailedIDs()).Warn("удаление откликов выполнено частично")
	}
	return result, nil
}

func (i *impl) AddEntity(ctx context.Context, payload pipelinemodels.Payload, stage models.ApplicationStage) (pipelinemodels.Entity, error) {
	if !i.schema.Contains(stage) {
		return pipelinemodels.Entity{}, errors.Wrapf(ErrInvalidStage, "этап %q", stage)
	}
	creator, ok := i.remote.(EntityCreator)
	if !ok {
		return pipelinemodels.Entity{}, ErrNotSupported
	}
	rec := pipelinemodels.Entity{
		ID:      uuid.NewString(),
		Payload: payload,
	}
	rec = i.applyStage(rec, stage, i.now())
	mutation := pipelinemodels.Mutation{
		Kind:     pipelinemodels.MutationAdd,
		EntityID: rec.ID,
		To:       stage,
	}

	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return pipelinemodels.Entity{}, ErrDisposed
	}
	t := i.begin(rec.ID, pipelinemodels.Entity{}, false)
	i.store.Upsert(rec)
	i.notify(pipelinemodels.EventOptimistic, pipelinemodels.MutationAdd, rec.ID)
	i.wg.Add(1)
	i.mu.Unlock()

	outCh := make(chan moveOutcome, 1)
	go func() {
		defer i.wg.Done()
		i.waitTurn(t)
		commitCtx, cancel := i.commitContext(ctx)
		start := time.Now()
		created, err := creator.Create(commitCtx, rec)
		cancel()
		commitDuration.WithLabelValues(string(pipelinemodels.MutationAdd)).Observe(time.Since(start).Seconds())

		i.mu.Lock()
		defer i.mu.Unlock()
		defer i.finish(t)
		latest := i.isLatest(t)
		if err == nil {
			created.ID = rec.ID
			created = i.normalize(created, rec)
			t.st.confirmed, t.st.exists = created, true
			if !latest {
				result := i.superseded(mutation, err)
				// Refresh в полете мог не увидеть новую запись, она уже подтверждена
				if _, inStore := i.store.Get(rec.ID); !inStore && i.states[rec.ID] == nil {
					i.store.Upsert(created)
					i.notify(pipelinemodels.EventCommitted, pipelinemodels.MutationAdd, rec.ID)
				}
				result.Entity = created
				outCh <- moveOutcome{result: result}
				return
			}
			i.store.Upsert(created)
			i.notify(pipelinemodels.EventCommitted, pipelinemodels.MutationAdd, rec.ID)
			mutationTotal.WithLabelValues(string(pipelinemodels.MutationAdd), string(pipelinemodels.MutationCommitted)).Inc()
			outCh <- moveOutcome{result: pipelinemodels.MoveResult{Mutation: mutation, State: pipelinemodels.MutationCommitted, Entity: created}}
			return
		}
		if !latest {
			// локальное состояние уже заменено, но запись не создана
			i.superseded(mutation, err)
			outCh <- moveOutcome{err: &RemoteCommitError{Mutation: mutation, Err: err}}
			return
		}
		i.restore(t)
		i.notify(pipelinemodels.EventRolledBack, pipelinemodels.MutationAdd, rec.ID)
		mutationTotal.WithLabelValues(string(pipelinemodels.MutationAdd), string(pipelinemodels.MutationRolledBack)).Inc()
		i.logger.WithError(err).WithField("id", rec.ID).Error("ошибка добавления отклика, изменение откачено")
		outCh <- moveOutcome{err: &RemoteCommitError{Mutation: mutation, Err: err}}
	}()
	select {
	case out := <-outCh:
		if out.err != nil {
			return pipelinemodels.Entity{}, out.err
		}
		return out.result.Entity, nil
	case <-ctx.Done():
		return rec, ctx.Err()
	}
}

// Refresh полная синхронизация. Локальные неподтвержденные изменения
// отбрасываются, ответы коммитов в полете становятся устаревшими.
func (i *impl) Refresh(ctx context.Context) error {
	list, err := i.remote.List(ctx)
	if err != nil {
		refreshTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "ошибка получения списка откликов")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return ErrDisposed
	}
	for _, st := range i.states {
		st.seq++
	}
	for id, st := range i.states {
		i.restoreState(id, st)
	}
	i.store.ReplaceAll(list)
	for id, st := range i.states {
		rec, ok := i.store.Get(id)
		if !ok {
			delete(i.states, id)
			continue
		}
		st.confirmed, st.exists = rec, true
	}
	refreshTotal.WithLabelValues("ok").Inc()
	i.notify(pipelinemodels.EventRefreshed, "")
	i.logger.WithField("count", i.store.Len()).Debug("список откликов синхронизирован")
	return nil
}

func (i *impl) Entity(id string) (pipelinemodels.Entity, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.store.Get(id)
}

func (i *impl) EntitiesByStage(stage models.ApplicationStage) ([]pipelinemodels.Entity, error) {
	if !i.schema.Contains(stage) {
		return nil, errors.Wrapf(ErrInvalidStage, "этап %q", stage)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	ids := i.store.IDsByStage(stage)
	list := make([]pipelinemodels.Entity, 0, len(ids))
	for _, id := range ids {
		rec, ok := i.store.Get(id)
		if !ok {
			panic("stage index references missing entity " + id)
		}
		list = append(list, rec)
	}
	return list, nil
}

func (i *impl) All() []pipelinemodels.Entity {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.store.All()
}

// Dispose новые изменения отклоняются, ждем завершения коммитов в полете
func (i *impl) Dispose() {
	i.mu.Lock()
	i.disposed = true
	i.mu.Unlock()
	i.wg.Wait()
}

func (i *impl) commitMove(ctx context.Context, t *ticket, mutation pipelinemodels.Mutation) (pipelinemodels.MoveResult, error) {
	i.waitTurn(t)
	commitCtx, cancel := i.commitContext(ctx)
	start := time.Now()
	upd, err := i.remote.UpdateStage(commitCtx, t.id, mutation.To)
	cancel()
	commitDuration.WithLabelValues(string(pipelinemodels.MutationMove)).Observe(time.Since(start).Seconds())

	i.mu.Lock()
	defer i.mu.Unlock()
	defer i.finish(t)
	latest := i.isLatest(t)
	if err == nil {
		t.st.confirmed = i.applyUpdate(t.st.confirmed, mutation.To, upd)
		if !latest {
			return i.superseded(mutation, nil), nil
		}
		i.store.Upsert(t.st.confirmed)
		i.notify(pipelinemodels.EventCommitted, pipelinemodels.MutationMove, t.id)
		mutationTotal.WithLabelValues(string(pipelinemodels.MutationMove), string(pipelinemodels.MutationCommitted)).Inc()
		return pipelinemodels.MoveResult{
			Mutation: mutation,
			State:    pipelinemodels.MutationCommitted,
			Entity:   t.st.confirmed,
		}, nil
	}
	if !latest {
		return i.superseded(mutation, err), nil
	}
	i.restore(t)
	i.notify(pipelinemodels.EventRolledBack, pipelinemodels.MutationMove, t.id)
	mutationTotal.WithLabelValues(string(pipelinemodels.MutationMove), string(pipelinemodels.MutationRolledBack)).Inc()
	i.logger.
		WithError(err).
		WithField("id", t.id).
		WithField("from", mutation.From).
		WithField("to", mutation.To).
		Error("ошибка смены этапа, изменение откачено")
	return pipelinemodels.MoveResult{
		Mutation: mutation,
		State:    pipelinemodels.MutationRolledBack,
		Entity:   t.st.confirmed,
	}, &RemoteCommitError{Mutation: mutation, Err: err}
}

func (i *impl) commitDelete(ctx context.Context, tickets []*ticket) pipelinemodels.BulkResult {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		i.waitTurn(t)
		ids = append(ids, t.id)
	}
	commitCtx, cancel := i.commitContext(ctx)
	start := time.Now()
	outcome, err := i.remote.DeleteMany(commitCtx, ids)
	cancel()
	commitDuration.WithLabelValues(string(pipelinemodels.MutationDelete)).Observe(time.Since(start).Seconds())

	deleted := map[string]bool{}
	if err == nil {
		for _, id := range outcome.Succeeded {
			deleted[id] = true
		}
	} else {
		i.logger.WithError(err).WithField("ids", ids).Error("ошибка удаления откликов")
	}

	result := newBulkResult()
	restoredIDs := []string{}
	committedIDs := []string{}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, t := range tickets {
		latest := i.isLatest(t)
		mutation := pipelinemodels.Mutation{
			Kind:     pipelinemodels.MutationDelete,
			EntityID: t.id,
			From:     t.st.confirmed.CurrentStage,
		}
		switch {
		case deleted[t.id]:
			t.st.exists = false
			if latest {
				result.Succeeded = append(result.Succeeded, t.id)
				committedIDs = append(committedIDs, t.id)
				mutationTotal.WithLabelValues(string(pipelinemodels.MutationDelete), string(pipelinemodels.MutationCommitted)).Inc()
			} else {
				i.superseded(mutation, nil)
				result.Superseded = append(result.Superseded, t.id)
			}
		case latest:
			commitErr := err
			if commitErr == nil {
				commitErr = errors.New("удаление не подтверждено")
			}
			i.restore(t)
			restoredIDs = append(restoredIDs, t.id)
			result.Failed = append(result.Failed, failedItem(t.id, &RemoteCommitError{Mutation: mutation, Err: commitErr}))
			mutationTotal.WithLabelValues(string(pipelinemodels.MutationDelete), string(pipelinemodels.MutationRolledBack)).Inc()
		default:
			i.superseded(mutation, err)
			result.Superseded = append(result.Superseded, t.id)
		}
		i.finish(t)
	}
	if len(committedIDs) != 0 {
		i.notify(pipelinemodels.EventCommitted, pipelinemodels.MutationDelete, committedIDs...)
	}
	if len(restoredIDs) != 0 {
		i.notify(pipelinemodels.EventRolledBack, pipelinemodels.MutationDelete, restoredIDs...)
	}
	return result
}

// begin под мьютексом: выдает токен и ставит коммит в очередь отклика
func (i *impl) begin(id string, current pipelinemodels.Entity, exists bool) *ticket {
	st, ok := i.states[id]
	if !ok {
		st = &entityState{confirmed: current, exists: exists}
		i.states[id] = st
	}
	st.seq++
	st.inFlight++
	t := &ticket{
		id:   id,
		st:   st,
		seq:  st.seq,
		prev: st.tail,
		done: make(chan struct{}),
	}
	st.tail = t.done
	return t
}

func (i *impl) waitTurn(t *ticket) {
	if t.prev != nil {
		<-t.prev
	}
}

func (i *impl) isLatest(t *ticket) bool {
	return i.states[t.id] == t.st && t.st.seq == t.seq
}

// finish под мьютексом
func (i *impl) finish(t *ticket) {
	t.st.inFlight--
	if t.st.inFlight == 0 && i.states[t.id] == t.st {
		delete(i.states, t.id)
	}
	close(t.done)
}

func (i *impl) restore(t *ticket) {
	i.restoreState(t.id, t.st)
}

func (i *impl) restoreState(id string, st *entityState) {
	if st.exists {
		i.store.Upsert(st.confirmed)
		return
	}
	i.store.Remove(id)
}

func (i *impl) superseded(mutation pipelinemodels.Mutation, commitErr error) pipelinemodels.MoveResult {
	logger := i.logger.
		WithField("id", mutation.EntityID).
		WithField("mutation", mutation.Kind)
	if commitErr != nil {
		logger = logger.WithError(commitErr)
	}
	logger.Debug("устаревший ответ удаленного хранилища отброшен")
	mutationTotal.WithLabelValues(string(mutation.Kind), string(pipelinemodels.MutationSuperseded)).Inc()
	rec, _ := i.store.Get(mutation.EntityID)
	return pipelinemodels.MoveResult{
		Mutation: mutation,
		State:    pipelinemodels.MutationSuperseded,
		Entity:   rec,
	}
}

func (i *impl) applyStage(rec pipelinemodels.Entity, stage models.ApplicationStage, at time.Time) pipelinemodels.Entity {
	rec.CurrentStage = stage
	if i.schema.IsProgressing(stage) {
		rec.HighWaterStage = i.schema.Higher(rec.HighWaterStage, stage)
	}
	if rec.HighWaterStage == "" {
		rec.HighWaterStage = i.schema.Entry()
	}
	rec.StageChangedAt = at
	return rec
}

// applyUpdate поля, которые нормализует удаленное хранилище
func (i *impl) applyUpdate(base pipelinemodels.Entity, requested models.ApplicationStage, upd pipelinemodels.StageUpdate) pipelinemodels.Entity {
	stage := upd.CurrentStage
	if !i.schema.Contains(stage) {
		stage = requested
	}
	changedAt := upd.StageChangedAt
	if changedAt.IsZero() {
		changedAt = i.now()
	}
	return i.applyStage(base, stage, changedAt)
}

func (i *impl) normalize(created, local pipelinemodels.Entity) pipelinemodels.Entity {
	if !i.schema.Contains(created.CurrentStage) {
		created.CurrentStage = local.CurrentStage
	}
	created.HighWaterStage = i.schema.Higher(local.HighWaterStage, created.HighWaterStage)
	if i.schema.IsProgressing(created.CurrentStage) {
		created.HighWaterStage = i.schema.Higher(created.HighWaterStage, created.CurrentStage)
	}
	if created.StageChangedAt.IsZero() {
		created.StageChangedAt = local.StageChangedAt
	}
	return created
}

func (i *impl) commitContext(ctx context.Context) (context.Context, context.CancelFunc) {
	// коммит доводится до конца даже если вызывающая сторона ушла
	ctx = context.WithoutCancel(ctx)
	if i.commitTimeout > 0 {
		return context.WithTimeout(ctx, i.commitTimeout)
	}
	return context.WithCancel(ctx)
}

// notify вызывается на каждое изменение хранилища, в том числе откат
// коммита, который завершился после Dispose
func (i *impl) notify(kind pipelinemodels.EventKind, mutation pipelinemodels.MutationKind, ids ...string) {
	if i.onChange == nil {
		return
	}
	i.onChange(pipelinemodels.Change{Kind: kind, Mutation: mutation, IDs: ids}, i.store)
}

func newBulkResult() pipelinemodels.BulkResult {
	return pipelinemodels.BulkResult{
		Succeeded: []string{},
		Failed:    []pipelinemodels.FailedItem{},
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
