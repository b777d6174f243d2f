package apiv1

import (
	"context"
	"job-pipeline-backend/controllers"
	applicationhistoryhandler "job-pipeline-backend/lib/application-history"
	"job-pipeline-backend/lib/pipeline"
	"job-pipeline-backend/lib/pipeline/coordinator"
	"job-pipeline-backend/models"
	apimodels "job-pipeline-backend/models/api"
	pipelineapimodels "job-pipeline-backend/models/api/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type pipelineApiController struct {
	controllers.BaseAPIController
	engine  pipeline.Provider
	history applicationhistoryhandler.Provider
}

func InitPipelineApiRouters(app *fiber.App, engine pipeline.Provider, history applicationhistoryhandler.Provider) {
	controller := pipelineApiController{
		engine:  engine,
		history: history,
	}
	app.Route("pipeline", func(router fiber.Router) {
		router.Get("funnel", controller.funnel)
		router.Get("distribution", controller.distribution)
		router.Get("cumulative", controller.cumulative)
		router.Get("conversions", controller.conversions)
		router.Get("stages", controller.stages)
		router.Get("stage/:stage", controller.stageList)
		router.Post("refresh", controller.refresh)
		router.Route("application", func(appRouter fiber.Router) {
			appRouter.Post("", controller.create)
			appRouter.Put("bulk_stage", controller.bulkChangeStage)
			appRouter.Put("delete", controller.delete)
			appRouter.Route(":id", func(idRouter fiber.Router) {
				idRouter.Get("", controller.get)
				idRouter.Put("stage", controller.changeStage)
				idRouter.Get("history", controller.historyList)
			})
		})
	})
}

// @Summary Воронка
// @Tags Воронка
// @Description Текущее распределение, накопленная воронка и конверсии
// @Success 200 {object} apimodels.Response{data=pipelineapimodels.FunnelView}
// @router /api/v1/pipeline/funnel [get]
func (c *pipelineApiController) funnel(ctx *fiber.Ctx) error {
	view, version := c.engine.Funnel()
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(pipelineapimodels.FunnelView{
		Version: version,
		View:    view,
	}))
}

// @Summary Текущее распределение
// @Tags Воронка
// @Description Сколько откликов сейчас на каждом этапе
// @Success 200 {object} apimodels.Response{data=[]pipelineapimodels.StageCount}
// @router /api/v1/pipeline/distribution [get]
func (c *pipelineApiController) distribution(ctx *fiber.Ctx) error {
	data := pipelineapimodels.StageCounts(c.engine.Schema().Stages(), c.engine.CurrentDistribution())
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(data))
}

// @Summary Накопленная воронка
// @Tags Воронка
// @Description Сколько откликов когда-либо достигли каждого этапа
// @Success 200 {object} apimodels.Response{data=[]pipelineapimodels.StageCount}
// @router /api/v1/pipeline/cumulative [get]
func (c *pipelineApiController) cumulative(ctx *fiber.Ctx) error {
	data := pipelineapimodels.StageCounts(c.engine.Schema().Stages(), c.engine.CumulativeFunnel())
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(data))
}

// @Summary Конверсии
// @Tags Воронка
// @Description Конверсии между соседними этапами
// @Success 200 {object} apimodels.Response{data=[]funnel.Conversion}
// @router /api/v1/pipeline/conversions [get]
func (c *pipelineApiController) conversions(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(c.engine.ConversionRates()))
}

// @Summary Этапы
// @Tags Воронка
// @Description Справочник этапов
// @Success 200 {object} apimodels.Response{data=[]pipelineapimodels.StageView}
// @router /api/v1/pipeline/stages [get]
func (c *pipelineApiController) stages(ctx *fiber.Ctx) error {
	schema := c.engine.Schema()
	stages := schema.Stages()
	data := make([]pipelineapimodels.StageView, 0, len(stages))
	for _, stage := range stages {
		data = append(data, pipelineapimodels.StageView{
			Stage:         stage,
			Title:         stage.Title(),
			Ordinal:       schema.Ordinal(stage),
			Progressing:   schema.IsProgressing(stage),
			Prerequisites: schema.Prerequisites(stage),
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(data))
}

// @Summary Отклики на этапе
// @Tags Воронка
// @Description Отклики, которые сейчас на этапе, по возрастанию id
// @Param   stage	path	string	true	"этап"
// @Success 200 {object} apimodels.Response{data=[]pipelinemodels.Entity}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/pipeline/stage/{stage} [get]
func (c *pipelineApiController) stageList(ctx *fiber.Ctx) error {
	stage := models.ApplicationStage(ctx.Params("stage"))
	list, err := c.engine.EntitiesByStage(stage)
	if err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка получения откликов этапа")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Синхронизация
// @Tags Воронка
// @Description Перечитать отклики из БД. Неподтвержденные изменения отбрасываются.
// @Success 200 {object} apimodels.Response{data=pipelineapimodels.FunnelView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/refresh [post]
func (c *pipelineApiController) refresh(ctx *fiber.Ctx) error {
	if err := c.engine.Refresh(ctx.UserContext()); err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка синхронизации воронки")
	}
	return c.funnel(ctx)
}

// @Summary Добавить отклик
// @Tags Отклик
// @Description Добавить отклик, по умолчанию на первый этап
// @Param	body body	pipelineapimodels.ApplicationData	true	"request body"
// @Success 200 {object} apimodels.Response{data=pipelinemodels.Entity}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/application [post]
func (c *pipelineApiController) create(ctx *fiber.Ctx) error {
	var payload pipelineapimodels.ApplicationData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	stage := payload.Stage
	if stage == "" {
		stage = c.engine.Schema().Entry()
	}
	rec, err := c.engine.AddEntity(ctx.UserContext(), payload.ToPayload(), stage)
	if err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка добавления отклика")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(rec))
}

// @Summary Отклик
// @Tags Отклик
// @Param   id	path	string	true	"ID отклика"
// @Success 200 {object} apimodels.Response{data=pipelinemodels.Entity}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/pipeline/application/{id} [get]
func (c *pipelineApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, ok := c.engine.Entity(id)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(coordinator.ErrEntityNotFound.Error()))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(rec))
}

// @Summary Перевести отклик на этап
// @Tags Отклик
// @Description Перевод на любой этап, в том числе назад. При ошибке сохранения изменение откатывается, в data - изменение для повтора.
// @Param   id		path	string	true	"ID отклика"
// @Param   stage	query	string	true	"новый этап"
// @Success 200 {object} apimodels.Response{data=pipelinemodels.MoveResult}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response{data=pipelinemodels.Mutation}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/application/{id}/stage [put]
func (c *pipelineApiController) changeStage(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	stage := models.ApplicationStage(ctx.Query("stage"))
	if stage == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("не указан этап"))
	}
	result, err := c.engine.MoveEntity(ctx.UserContext(), id, stage)
	if err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка перевода отклика на этап")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Перевести отклики на этап
// @Tags Отклик
// @Description Частичный успех возвращается со статусом 200, список ошибок в failed
// @Param	body body	pipelineapimodels.MultiChangeStageRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=pipelinemodels.BulkResult}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/application/bulk_stage [put]
func (c *pipelineApiController) bulkChangeStage(ctx *fiber.Ctx) error {
	var payload pipelineapimodels.MultiChangeStageRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := c.engine.BulkMove(ctx.UserContext(), payload.IDs, payload.Stage)
	if err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка перевода откликов на этап")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Удалить отклики
// @Tags Отклик
// @Description Частичный успех возвращается со статусом 200, неудаленные отклики возвращаются в воронку
// @Param	body body	pipelineapimodels.MultiDeleteRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=pipelinemodels.BulkResult}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/application/delete [put]
func (c *pipelineApiController) delete(ctx *fiber.Ctx) error {
	var payload pipelineapimodels.MultiDeleteRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	result, err := c.engine.DeleteEntities(ctx.UserContext(), payload.IDs)
	if err != nil {
		return c.sendPipelineError(ctx, err, "Ошибка удаления откликов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary История отклика
// @Tags Отклик
// @Param   id		path	string	true	"ID отклика"
// @Param   page	query	int		false	"страница"
// @Param   limit	query	int		false	"записей на странице"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]pipelineapimodels.ApplicationHistoryView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/pipeline/application/{id}/history [get]
func (c *pipelineApiController) historyList(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var filter apimodels.Pagination
	if err = c.QueryParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = filter.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, rowCount, err := c.history.List(id, filter)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения истории отклика")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// sendPipelineError ошибки движка: некорректный запрос - 400,
// откат после ошибки сохранения - 409 с изменением для повтора
func (c *pipelineApiController) sendPipelineError(ctx *fiber.Ctx, err error, message string) error {
	logger := c.GetLogger(ctx)
	var commitErr *coordinator.RemoteCommitError
	switch {
	case errors.Is(err, coordinator.ErrInvalidStage), errors.Is(err, coordinator.ErrEntityNotFound):
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	case errors.As(err, &commitErr):
		logger.WithError(err).Warn(message)
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewErrorWithData(coordinator.ErrRemoteCommitFailed.Error(), commitErr.Mutation))
	case errors.Is(err, coordinator.ErrNotSupported):
		return ctx.Status(fiber.StatusNotImplemented).JSON(apimodels.NewError(err.Error()))
	case errors.Is(err, coordinator.ErrDisposed), errors.Is(err, context.Canceled):
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(apimodels.NewError(err.Error()))
	}
	return c.SendError(ctx, logger, err, message)
}
