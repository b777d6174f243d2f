package initializers

import (
	"context"
	"job-pipeline-backend/config"
	"job-pipeline-backend/db"
	"job-pipeline-backend/fiberlog"
	applicationhistoryhandler "job-pipeline-backend/lib/application-history"
	pdfexport "job-pipeline-backend/lib/export/pdf"
	xlsexport "job-pipeline-backend/lib/export/xls"
	"job-pipeline-backend/lib/pipeline"
	refreshworker "job-pipeline-backend/lib/pipeline/refresh-worker"
	initchecker "job-pipeline-backend/lib/utils/init-checker"
	connectionhub "job-pipeline-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

// Services зависимости роутеров
type Services struct {
	Engine  pipeline.Provider
	History applicationhistoryhandler.Provider
	Hub     connectionhub.Provider
	Export  xlsexport.Provider
	Report  pdfexport.Provider
}

func InitAllServices(ctx context.Context) *Services {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	connectionhub.Init(config.Conf.Pipeline.NotifyBuffer)
	xlsexport.NewHandler()
	pdfexport.NewHandler(config.Conf.Export.FontDir)
	services := &Services{
		Engine:  InitPipeline(ctx),
		History: applicationhistoryhandler.NewHandler(db.DB),
		Hub:     connectionhub.Instance,
		Export:  xlsexport.Instance,
		Report:  pdfexport.Instance,
	}
	initchecker.CheckInit(
		"engine", services.Engine,
		"history", services.History,
		"hub", services.Hub,
		"export", services.Export,
		"report", services.Report,
	)
	go initWorkers(ctx, services)
	return services
}

func initWorkers(ctx context.Context, services *Services) {
	// Задача периодической синхронизации воронки с БД
	refreshworker.StartWorker(ctx, services.Engine, config.Conf.RefreshInterval())
}

// Shutdown дожидается коммитов в полете и закрывает БД
func (s *Services) Shutdown() {
	s.Engine.Dispose()
	db.Close()
}
