package initializers

import (
	"context"
	"job-pipeline-backend/config"
	"job-pipeline-backend/db"
	applicationstore "job-pipeline-backend/lib/application/store"
	"job-pipeline-backend/lib/pipeline"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// InitPipeline движок воронки поверх таблицы applications.
// Первая загрузка обязательна, без нее сервис не стартует.
func InitPipeline(ctx context.Context) pipeline.Provider {
	schema := stageschema.Default()
	engine := pipeline.New(
		applicationstore.NewInstance(db.DB, schema),
		pipeline.WithSchema(schema),
		pipeline.WithBulkConcurrency(config.Conf.Pipeline.BulkConcurrency),
		pipeline.WithCommitTimeout(config.Conf.CommitTimeout()),
	)
	if err := engine.Refresh(ctx); err != nil {
		panic(errors.Wrap(err, "ошибка загрузки воронки").Error())
	}
	view, version := engine.Funnel()
	log.
		WithField("total", view.Total).
		WithField("version", version).
		Info("воронка загружена")
	return engine
}
