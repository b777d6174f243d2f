package refreshworker

import (
	"context"
	"time"

	baseworker "job-pipeline-backend/lib/utils/base-worker"
	"job-pipeline-backend/lib/utils/helpers"

	"github.com/pkg/errors"
)

// Refresher полная синхронизация набора откликов с БД
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StartWorker периодически перечитывает отклики из БД, чтобы подтянуть
// изменения, сделанные в обход движка. interval <= 0 выключает задачу.
func StartWorker(ctx context.Context, engine Refresher, interval time.Duration) {
	if interval <= 0 {
		return
	}
	i := newWorker(engine, interval)
	go i.Run(ctx, i.handle)
}

func newWorker(engine Refresher, interval time.Duration) *impl {
	return &impl{
		BaseImpl: *baseworker.NewInstance("PipelineRefreshWorker", interval, interval),
		engine:   engine,
	}
}

type impl struct {
	baseworker.BaseImpl
	engine Refresher
}

func (i impl) handle(ctx context.Context) {
	if helpers.IsContextDone(ctx) {
		return
	}
	start := time.Now()
	err := i.engine.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		i.GetLogger().WithError(err).Error("ошибка синхронизации воронки")
		return
	}
	i.GetLogger().WithField("duration", time.Since(start).String()).Debug("воронка синхронизирована")
}
