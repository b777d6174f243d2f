package xlsexport

import (
	"bytes"
	"job-pipeline-backend/lib/pipeline/funnel"
	"job-pipeline-backend/models"
	pipelinemodels "job-pipeline-backend/models/pipeline"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	FunnelSheet       = "Воронка"
	ApplicationsSheet = "Отклики"
)

type Provider interface {
	ExportFunnel(stages []models.ApplicationStage, view funnel.View, list []pipelinemodels.Entity) (*bytes.Buffer, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{}
}

type impl struct{}

var funnelHeaders = []string{"Этап", "Сейчас на этапе", "Достигли этапа", "Конверсия в следующий этап"}

var applicationHeaders = []string{"Компания", "Должность", "Город", "Текущий этап", "Максимальный этап", "Дата смены этапа", "Зарплата", "Ссылка"}

func (i impl) ExportFunnel(stages []models.ApplicationStage, view funnel.View, list []pipelinemodels.Entity) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Error("ошибка закрытия файла")
		}
	}()
	sheet := "Sheet1"
	row, err := writeHeader(f, sheet, 0, funnelHeaders, 28)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if _, err = writeFunnelData(f, sheet, stages, view, row); err != nil {
		return nil, errors.Wrap(err, "ошибка формирования таблицы воронки в xlsx")
	}
	if err = f.SetSheetName(sheet, FunnelSheet); err != nil {
		return nil, errors.Wrap(err, "ошибка переименования листа xlsx")
	}

	if _, err = f.NewSheet(ApplicationsSheet); err != nil {
		return nil, errors.Wrap(err, "ошибка создания листа xlsx")
	}
	row, err = writeHeader(f, ApplicationsSheet, 0, applicationHeaders, 25)
	if err != nil {
		return nil, errors.Wrap(err, "ошибка формирования заголовка в xlsx")
	}
	if len(list) != 0 {
		if _, err = writeApplicationData(f, ApplicationsSheet, list, row); err != nil {
			return nil, errors.Wrap(err, "ошибка формирования таблицы откликов в xlsx")
		}
	}
	return f.WriteToBuffer()
}

func writeFunnelData(f *excelize.File, sheet string, stages []models.ApplicationStage, view funnel.View, row int) (int, error) {
	if len(stages) == 0 {
		return row, nil
	}
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(funnelHeaders)-1, row+len(stages)); err != nil {
		return row, err
	}
	if err := applyPercentStyle(f, sheet, len(funnelHeaders), row+1, row+len(stages)); err != nil {
		return row, err
	}
	rates := make(map[models.ApplicationStage]float64, len(view.Conversions))
	for _, conversion := range view.Conversions {
		rates[conversion.From] = conversion.Rate
	}
	for _, stage := range stages {
		row++
		var rate interface{}
		if value, ok := rates[stage]; ok {
			rate = value
		}
		err := writeRow(f, sheet, row,
			stage.Title(),
			view.Current[stage],
			view.Cumulative[stage],
			rate,
		)
		if err != nil {
			return row, err
		}
	}
	return row, nil
}

func writeApplicationData(f *excelize.File, sheet string, list []pipelinemodels.Entity, row int) (int, error) {
	if err := applyDataCellStyle(f, sheet, 1, row+1, len(applicationHeaders), row+len(list)); err != nil {
		return row, err
	}
	for _, item := range list {
		row++
		var changedAt interface{}
		if !item.StageChangedAt.IsZero() {
			changedAt = item.StageChangedAt.Format("02.01.2006")
		}
		err := writeRow(f, sheet, row,
			item.Payload.Company,
			item.Payload.Position,
			item.Payload.Location,
			item.CurrentStage.Title(),
			item.HighWaterStage.Title(),
			changedAt,
			item.Payload.Salary,
			item.Payload.URL,
		)
		if err != nil {
			return row, err
		}
	}
	return row, nil
}
