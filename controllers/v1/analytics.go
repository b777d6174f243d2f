package apiv1

import (
	"fmt"
	"job-pipeline-backend/controllers"
	pdfexport "job-pipeline-backend/lib/export/pdf"
	xlsexport "job-pipeline-backend/lib/export/xls"
	"job-pipeline-backend/lib/pipeline"
	"job-pipeline-backend/lib/pipeline/funnel"
	"time"

	"github.com/gofiber/fiber/v2"
)

type analyticsApiController struct {
	controllers.BaseAPIController
	engine pipeline.Provider
	export xlsexport.Provider
	report pdfexport.Provider
}

func InitAnalyticsApiRouters(app *fiber.App, engine pipeline.Provider, export xlsexport.Provider, report pdfexport.Provider) {
	controller := analyticsApiController{
		engine: engine,
		export: export,
		report: report,
	}
	app.Route("analytics", func(router fiber.Router) {
		router.Get("funnel_export", controller.funnelExport)
		router.Get("funnel_report", controller.funnelReport)
	})
}

// @Summary Воронка. Выгрузить в Excel
// @Tags Аналитика
// @Description Лист "Воронка" со счетчиками по этапам и конверсиями, лист "Отклики" со списком откликов
// @Success 200
// @Failure 500 {object} apimodels.Response
// @router /api/v1/analytics/funnel_export [get]
func (c *analyticsApiController) funnelExport(ctx *fiber.Ctx) error {
	// агрегаты считаем по тому же снимку, что и список
	list := c.engine.All()
	schema := c.engine.Schema()
	view := funnel.Compute(schema, list)
	stages := schema.Stages()
	data, err := c.export.ExportFunnel(stages, view, list)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка выгрузки воронки в Excel")
	}
	fileName := fmt.Sprintf("funnel-%v.xlsx", time.Now().Format("20060102-150405"))
	ctx.Set(fiber.HeaderContentType, "application/vnd.ms-excel")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}

// @Summary Воронка. Отчет в PDF
// @Tags Аналитика
// @Description Таблица счетчиков и конверсий по этапам
// @Success 200
// @Failure 500 {object} apimodels.Response
// @router /api/v1/analytics/funnel_report [get]
func (c *analyticsApiController) funnelReport(ctx *fiber.Ctx) error {
	view, _ := c.engine.Funnel()
	now := time.Now()
	data, err := c.report.FunnelReport(c.engine.Schema().Stages(), view, now)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования отчета по воронке")
	}
	fileName := fmt.Sprintf("funnel-%v.pdf", now.Format("20060102-150405"))
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return ctx.SendStream(data)
}
