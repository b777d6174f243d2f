package baseworker

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

type BaseImpl struct {
	WorkerName    string
	firstRunDelay time.Duration
	runInterval   time.Duration
}

func NewInstance(WorkerName string, firstRunDelay, runInterval time.Duration) *BaseImpl {
	return &BaseImpl{
		WorkerName:    WorkerName,
		firstRunDelay: firstRunDelay,
		runInterval:   runInterval,
	}
}

func (i BaseImpl) GetLogger() *log.Entry {
	logger := log.
		WithField("worker_name", i.WorkerName)
	return logger
}

// Run выполняет jobFunc с периодом runInterval до завершения контекста.
// Паника в jobFunc не останавливает задачу.
func (i BaseImpl) Run(ctx context.Context, jobFunc func(ctx context.Context)) {
	period := i.firstRunDelay
	logger := i.GetLogger()
	timer := time.NewTimer(period)
	defer timer.Stop()
	for {
		select {
		// проверяем не завершён ли ещё контекст и выходим, если завершён
		case <-ctx.Done():
			logger.Info("Задача остановлена")
			return
		case <-timer.C:
			logger.Debug("Задача запущена")
			i.runJob(ctx, jobFunc)
			logger.Debug("Задача выполнена")
		}
		period = i.runInterval
		timer.Reset(period)
	}
}

func (i BaseImpl) runJob(ctx context.Context, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			i.GetLogger().
				WithField("panic_stack", string(debug.Stack())).
				Errorf("panic: (%v)", r)
		}
	}()
	jobFunc(ctx)
}
