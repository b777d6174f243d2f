package coordinator

import (
	"context"
	"job-pipeline-backend/lib/pipeline/funnel"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var localTime = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

func seed() []pipelinemodels.Entity {
	return []pipelinemodels.Entity{
		{ID: "e1", CurrentStage: models.StageApplied},
		{ID: "e2", CurrentStage: models.StageInterview},
		{ID: "e3", CurrentStage: models.StageInterested},
	}
}

func newTestInstance(t *testing.T, remote *fakeRemote, changes *changeLog) Provider {
	t.Helper()
	var hook ChangeFunc
	if changes != nil {
		hook = changes.hook()
	}
	c := NewInstance(stageschema.Default(), remote, hook, WithClock(func() time.Time { return localTime }))
	require.NoError(t, c.Refresh(context.Background()))
	t.Cleanup(c.Dispose)
	return c
}

func view(c Provider) funnel.View {
	return funnel.Compute(stageschema.Default(), c.All())
}

func get(t *testing.T, c Provider, id string) pipelinemodels.Entity {
	t.Helper()
	rec, ok := c.Entity(id)
	require.True(t, ok, "entity %s not found", id)
	return rec
}

func TestMoveEntity(t *testing.T) {
	ctx := context.Background()

	t.Run(`invalid stage is rejected before any mutation`, func(t *testing.T) {
		changes := &changeLog{}
		c := newTestInstance(t, newFakeRemote(seed()...), changes)
		before := get(t, c, "e1")
		_, err := c.MoveEntity(ctx, "e1", "hired")
		require.True(t, errors.Is(err, ErrInvalidStage))
		require.Equal(t, before, get(t, c, "e1"))
		require.Equal(t, []pipelinemodels.EventKind{pipelinemodels.EventRefreshed}, changes.kinds())
	})

	t.Run(`unknown entity`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(seed()...), nil)
		_, err := c.MoveEntity(ctx, "nope", models.StageOffer)
		require.True(t, errors.Is(err, ErrEntityNotFound))
	})

	t.Run(`commit keeps new stage and raises high water mark`, func(t *testing.T) {
		changes := &changeLog{}
		remote := newFakeRemote(seed()...)
		c := newTestInstance(t, remote, changes)
		res, err := c.MoveEntity(ctx, "e1", models.StageInterview)
		require.NoError(t, err)
		require.Equal(t, pipelinemodels.MutationCommitted, res.State)
		require.Equal(t, models.StageApplied, res.Mutation.From)

		rec := get(t, c, "e1")
		require.Equal(t, models.StageInterview, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
		require.Equal(t, serverTime, rec.StageChangedAt)
		require.Equal(t, []pipelinemodels.EventKind{
			pipelinemodels.EventRefreshed,
			pipelinemodels.EventOptimistic,
			pipelinemodels.EventCommitted,
		}, changes.kinds())
	})

	t.Run(`move into exit keeps high water mark`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(seed()...), nil)
		_, err := c.MoveEntity(ctx, "e2", models.StageRejected)
		require.NoError(t, err)
		rec := get(t, c, "e2")
		require.Equal(t, models.StageRejected, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
		require.Equal(t, 1, view(c).Cumulative[models.StageInterview])
	})

	t.Run(`backward move never lowers high water mark`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(seed()...), nil)
		_, err := c.MoveEntity(ctx, "e2", models.StageInterested)
		require.NoError(t, err)
		rec := get(t, c, "e2")
		require.Equal(t, models.StageInterested, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
	})

	t.Run(`failed commit restores entity and aggregates exactly`, func(t *testing.T) {
		for _, target := range []models.ApplicationStage{models.StageOffer, models.StageRejected, models.StageInterested} {
			changes := &changeLog{}
			remote := newFakeRemote(seed()...)
			remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
				return errRemote
			}
			c := newTestInstance(t, remote, changes)
			before := get(t, c, "e2")
			beforeView := view(c)

			res, err := c.MoveEntity(ctx, "e2", target)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrRemoteCommitFailed))
			commitErr := &RemoteCommitError{}
			require.True(t, errors.As(err, &commitErr))
			require.Equal(t, target, commitErr.Mutation.To)
			require.Equal(t, models.StageInterview, commitErr.Mutation.From)
			require.Equal(t, pipelinemodels.MutationRolledBack, res.State)

			require.Equal(t, before, get(t, c, "e2"))
			require.Equal(t, beforeView, view(c))
			require.Equal(t, []pipelinemodels.EventKind{
				pipelinemodels.EventRefreshed,
				pipelinemodels.EventOptimistic,
				pipelinemodels.EventRolledBack,
			}, changes.kinds())
		}
	})

	t.Run(`stale response is discarded`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		started := make(chan models.ApplicationStage, 4)
		releaseA := make(chan error, 1)
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			started <- stage
			if stage == models.StagePhoneScreen {
				return <-releaseA
			}
			return nil
		}
		c := newTestInstance(t, remote, nil)

		outA := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(ctx, "e1", models.StagePhoneScreen)
			outA <- moveOutcome{result: res, err: err}
		}()
		require.Equal(t, models.StagePhoneScreen, <-started)

		outB := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(ctx, "e1", models.StageOffer)
			outB <- moveOutcome{result: res, err: err}
		}()
		require.Eventually(t, func() bool {
			return get(t, c, "e1").CurrentStage == models.StageOffer
		}, time.Second, 5*time.Millisecond)

		// второй коммит ждет завершения первого
		select {
		case stage := <-started:
			t.Fatalf("commit for %s started before the previous one resolved", stage)
		case <-time.After(50 * time.Millisecond):
		}

		releaseA <- errRemote
		a := <-outA
		require.NoError(t, a.err)
		require.Equal(t, pipelinemodels.MutationSuperseded, a.result.State)
		b := <-outB
		require.NoError(t, b.err)
		require.Equal(t, pipelinemodels.MutationCommitted, b.result.State)
		require.Equal(t, models.StageOffer, <-started)

		rec := get(t, c, "e1")
		require.Equal(t, models.StageOffer, rec.CurrentStage)
		require.Equal(t, models.StageOffer, rec.HighWaterStage)
	})

	t.Run(`latest failure rolls back to last confirmed state`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		started := make(chan models.ApplicationStage, 4)
		releaseA := make(chan struct{})
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			started <- stage
			if stage == models.StageInterview {
				<-releaseA
				return nil
			}
			return errRemote
		}
		c := newTestInstance(t, remote, nil)

		outA := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(ctx, "e1", models.StageInterview)
			outA <- moveOutcome{result: res, err: err}
		}()
		require.Equal(t, models.StageInterview, <-started)

		outB := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(ctx, "e1", models.StageOffer)
			outB <- moveOutcome{result: res, err: err}
		}()
		require.Eventually(t, func() bool {
			return get(t, c, "e1").CurrentStage == models.StageOffer
		}, time.Second, 5*time.Millisecond)

		close(releaseA)
		a := <-outA
		require.Equal(t, pipelinemodels.MutationSuperseded, a.result.State)
		b := <-outB
		require.True(t, errors.Is(b.err, ErrRemoteCommitFailed))

		// первый коммит прошел, откатываемся к нему, а не к исходному этапу
		rec := get(t, c, "e1")
		require.Equal(t, models.StageInterview, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
	})

	t.Run(`cancelled caller gets optimistic state, commit completes in background`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		release := make(chan struct{})
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			<-release
			return errRemote
		}
		c := newTestInstance(t, remote, nil)
		cctx, cancel := context.WithCancel(ctx)
		out := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(cctx, "e1", models.StageOffer)
			out <- moveOutcome{result: res, err: err}
		}()
		require.Eventually(t, func() bool {
			return get(t, c, "e1").CurrentStage == models.StageOffer
		}, time.Second, 5*time.Millisecond)
		cancel()
		res := <-out
		require.True(t, errors.Is(res.err, context.Canceled))
		require.Equal(t, pipelinemodels.MutationOptimistic, res.result.State)

		close(release)
		require.Eventually(t, func() bool {
			return get(t, c, "e1").CurrentStage == models.StageApplied
		}, time.Second, 5*time.Millisecond)
	})
}

func TestBulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run(`partial failure is reported per id`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			if id == "e2" {
				return errRemote
			}
			return nil
		}
		c := newTestInstance(t, remote, nil)
		res, err := c.BulkMove(ctx, []string{"e1", "e2", "e3", "e1", "missing"}, models.StageOffer)
		require.NoError(t, err)
		require.True(t, res.HasFailures())
		require.ElementsMatch(t, []string{"e1", "e3"}, res.Succeeded)
		require.ElementsMatch(t, []string{"e2", "missing"}, res.FailedIDs())
		for _, item := range res.Failed {
			if item.ID == "e2" {
				require.True(t, errors.Is(item.Err, ErrRemoteCommitFailed))
			} else {
				require.True(t, errors.Is(item.Err, ErrEntityNotFound))
			}
		}

		require.Equal(t, models.StageOffer, get(t, c, "e1").CurrentStage)
		require.Equal(t, models.StageOffer, get(t, c, "e3").CurrentStage)
		rec := get(t, c, "e2")
		require.Equal(t, models.StageInterview, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
	})

	t.Run(`invalid stage rejects the whole call`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(seed()...), nil)
		before := view(c)
		_, err := c.BulkMove(ctx, []string{"e1", "e2"}, "hired")
		require.True(t, errors.Is(err, ErrInvalidStage))
		require.Equal(t, before, view(c))
	})

	t.Run(`concurrency limit is honoured`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		var running, peak int32
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			n := atomic.AddInt32(&running, 1)
			defer atomic.AddInt32(&running, -1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			return nil
		}
		c := NewInstance(stageschema.Default(), remote, nil, WithBulkConcurrency(1))
		require.NoError(t, c.Refresh(ctx))
		res, err := c.BulkMove(ctx, []string{"e1", "e2", "e3"}, models.StageApplied)
		require.NoError(t, err)
		require.Len(t, res.Succeeded, 3)
		require.Equal(t, int32(1), atomic.LoadInt32(&peak))
		c.Dispose()
	})
}

func TestDeleteEntities(t *testing.T) {
	ctx := context.Background()

	t.Run(`failed ids are re-inserted`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		remote.deleteFn = func(ids []string) (pipelinemodels.DeleteOutcome, error) {
			return pipelinemodels.DeleteOutcome{Succeeded: []string{"e1"}, Failed: []string{"e2"}}, nil
		}
		changes := &changeLog{}
		c := newTestInstance(t, remote, changes)
		before := get(t, c, "e2")

		res, err := c.DeleteEntities(ctx, []string{"e1", "e2", "nope"})
		require.NoError(t, err)
		require.Equal(t, []string{"e1"}, res.Succeeded)
		require.ElementsMatch(t, []string{"e2", "nope"}, res.FailedIDs())

		_, ok := c.Entity("e1")
		require.False(t, ok)
		require.Equal(t, before, get(t, c, "e2"))
		require.False(t, remote.has("e1"))
		require.Equal(t, []pipelinemodels.EventKind{
			pipelinemodels.EventRefreshed,
			pipelinemodels.EventOptimistic,
			pipelinemodels.EventCommitted,
			pipelinemodels.EventRolledBack,
		}, changes.kinds())
	})

	t.Run(`remote error restores everything`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		remote.deleteFn = func(ids []string) (pipelinemodels.DeleteOutcome, error) {
			return pipelinemodels.DeleteOutcome{}, errRemote
		}
		c := newTestInstance(t, remote, nil)
		before := view(c)
		res, err := c.DeleteEntities(ctx, []string{"e1", "e2"})
		require.NoError(t, err)
		require.Empty(t, res.Succeeded)
		require.Len(t, res.Failed, 2)
		for _, item := range res.Failed {
			require.True(t, errors.Is(item.Err, ErrRemoteCommitFailed))
		}
		require.Equal(t, before, view(c))
	})
}

func TestAddEntity(t *testing.T) {
	ctx := context.Background()

	t.Run(`added entity is committed`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		c := newTestInstance(t, remote, nil)
		rec, err := c.AddEntity(ctx, pipelinemodels.Payload{Company: "Acme"}, models.StageApplied)
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)
		require.Equal(t, models.StageApplied, rec.HighWaterStage)
		require.Equal(t, serverTime, rec.StageChangedAt)
		require.True(t, remote.has(rec.ID))
		require.Equal(t, "Acme", get(t, c, rec.ID).Payload.Company)
	})

	t.Run(`failed create removes the optimistic entity`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		remote.createFn = func(rec pipelinemodels.Entity) error {
			return errRemote
		}
		c := newTestInstance(t, remote, nil)
		_, err := c.AddEntity(ctx, pipelinemodels.Payload{}, models.StageInterested)
		require.True(t, errors.Is(err, ErrRemoteCommitFailed))
		require.Len(t, c.All(), 3)
	})

	t.Run(`added to an exit stage gets the entry stage as high water`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(), nil)
		rec, err := c.AddEntity(ctx, pipelinemodels.Payload{}, models.StageWithdrawn)
		require.NoError(t, err)
		require.Equal(t, models.StageInterested, rec.HighWaterStage)
	})

	t.Run(`create overlapping refresh returns the created entity`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		block := make(chan struct{})
		remote.createFn = func(rec pipelinemodels.Entity) error {
			<-block
			return nil
		}
		changes := &changeLog{}
		c := newTestInstance(t, remote, changes)
		type addOutcome struct {
			rec pipelinemodels.Entity
			err error
		}
		out := make(chan addOutcome, 1)
		go func() {
			rec, err := c.AddEntity(ctx, pipelinemodels.Payload{Company: "Acme"}, models.StageApplied)
			out <- addOutcome{rec: rec, err: err}
		}()
		require.Eventually(t, func() bool {
			return len(c.All()) == 4
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, c.Refresh(ctx))
		require.Len(t, c.All(), 3)

		close(block)
		res := <-out
		require.NoError(t, res.err)
		require.NotEmpty(t, res.rec.ID)
		require.Equal(t, models.StageApplied, res.rec.CurrentStage)
		require.Equal(t, "Acme", res.rec.Payload.Company)
		require.Equal(t, res.rec, get(t, c, res.rec.ID))
		require.Len(t, c.All(), 4)
		kinds := changes.kinds()
		require.Equal(t, pipelinemodels.EventCommitted, kinds[len(kinds)-1])
	})

	t.Run(`failed create overlapping refresh returns an error`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		block := make(chan struct{})
		remote.createFn = func(rec pipelinemodels.Entity) error {
			<-block
			return errRemote
		}
		c := newTestInstance(t, remote, nil)
		out := make(chan error, 1)
		go func() {
			_, err := c.AddEntity(ctx, pipelinemodels.Payload{}, models.StageApplied)
			out <- err
		}()
		require.Eventually(t, func() bool {
			return len(c.All()) == 4
		}, time.Second, 5*time.Millisecond)
		require.NoError(t, c.Refresh(ctx))

		close(block)
		require.True(t, errors.Is(<-out, ErrRemoteCommitFailed))
		require.Len(t, c.All(), 3)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run(`high water mark survives refresh`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		c := newTestInstance(t, remote, nil)
		_, err := c.MoveEntity(ctx, "e1", models.StageInterview)
		require.NoError(t, err)

		remote.setStage("e1", models.StageApplied)
		require.NoError(t, c.Refresh(ctx))
		rec := get(t, c, "e1")
		require.Equal(t, models.StageApplied, rec.CurrentStage)
		require.Equal(t, models.StageInterview, rec.HighWaterStage)
	})

	t.Run(`refresh is idempotent`, func(t *testing.T) {
		c := newTestInstance(t, newFakeRemote(seed()...), nil)
		first := view(c)
		require.NoError(t, c.Refresh(ctx))
		require.Equal(t, first, view(c))
		require.NoError(t, c.Refresh(ctx))
		require.Equal(t, first, view(c))
	})

	t.Run(`refresh supersedes commit in flight`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		block := make(chan struct{})
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			<-block
			return nil
		}
		c := newTestInstance(t, remote, nil)
		out := make(chan moveOutcome, 1)
		go func() {
			res, err := c.MoveEntity(ctx, "e1", models.StageOffer)
			out <- moveOutcome{result: res, err: err}
		}()
		require.Eventually(t, func() bool {
			return get(t, c, "e1").CurrentStage == models.StageOffer
		}, time.Second, 5*time.Millisecond)

		require.NoError(t, c.Refresh(ctx))
		rec := get(t, c, "e1")
		require.Equal(t, models.StageApplied, rec.CurrentStage)
		// неподтвержденная оптимистичная отметка не переживает синхронизацию
		require.Equal(t, models.StageApplied, rec.HighWaterStage)

		close(block)
		res := <-out
		require.NoError(t, res.err)
		require.Equal(t, pipelinemodels.MutationSuperseded, res.result.State)
		require.Equal(t, models.StageApplied, get(t, c, "e1").CurrentStage)

		require.NoError(t, c.Refresh(ctx))
		rec = get(t, c, "e1")
		require.Equal(t, models.StageOffer, rec.CurrentStage)
		require.Equal(t, models.StageOffer, rec.HighWaterStage)
	})

	t.Run(`dispose waits for failing commit and reports its rollback`, func(t *testing.T) {
		remote := newFakeRemote(seed()...)
		release := make(chan struct{})
		remote.updateFn = func(ctx context.Context, id string, stage models.ApplicationStage) error {
			<-release
			return errRemote
		}
		changes := &changeLog{}
		c := NewInstance(stageschema.Default(), remote, changes.hook())
		require.NoError(t, c.Refresh(ctx))

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.MoveEntity(cctx, "e1", models.StageOffer)
		require.True(t, errors.Is(err, context.Canceled))

		disposed := make(chan struct{})
		go func() {
			c.Dispose()
			close(disposed)
		}()
		close(release)
		<-disposed

		require.Equal(t, models.StageApplied, get(t, c, "e1").CurrentStage)
		kinds := changes.kinds()
		require.Equal(t, pipelinemodels.EventRolledBack, kinds[len(kinds)-1])
	})

	t.Run(`disposed instance rejects mutations`, func(t *testing.T) {
		c := NewInstance(stageschema.Default(), newFakeRemote(seed()...), nil)
		require.NoError(t, c.Refresh(ctx))
		c.Dispose()
		_, err := c.MoveEntity(ctx, "e1", models.StageOffer)
		require.True(t, errors.Is(err, ErrDisposed))
		require.True(t, errors.Is(c.Refresh(ctx), ErrDisposed))
	})
}

func TestEntitiesByStage(t *testing.T) {
	c := newTestInstance(t, newFakeRemote(seed()...), nil)
	list, err := c.EntitiesByStage(models.StageInterview)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "e2", list[0].ID)

	_, err = c.EntitiesByStage("hired")
	require.True(t, errors.Is(err, ErrInvalidStage))
}
