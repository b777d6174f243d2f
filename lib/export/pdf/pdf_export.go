package pdfexport

import (
	"bytes"
	"fmt"
	"job-pipeline-backend/lib/pipeline/funnel"
	"job-pipeline-backend/models"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const fontFamily = "Arial"

type Provider interface {
	FunnelReport(stages []models.ApplicationStage, view funnel.View, generatedAt time.Time) (*bytes.Buffer, error)
}

var Instance Provider

// NewHandler fontDir каталог с Arial.ttf и "Arial Bold.ttf".
// Без шрифтов отчет строится встроенным Helvetica с латинскими подписями.
func NewHandler(fontDir string) {
	Instance = newImpl(fontDir)
}

func newImpl(fontDir string) impl {
	result := impl{fontDir: fontDir, labels: latinLabels}
	if fontDir == "" {
		return result
	}
	for _, name := range []string{"Arial.ttf", "Arial Bold.ttf"} {
		if _, err := os.Stat(filepath.Join(fontDir, name)); err != nil {
			log.WithError(err).Warnf("шрифт %s не найден, отчет будет без кириллицы", name)
			result.fontDir = ""
			return result
		}
	}
	result.labels = cyrillicLabels
	return result
}

type labels struct {
	title      string
	generated  string
	total      string
	stage      string
	current    string
	cumulative string
	conversion string
	stageTitle func(stage models.ApplicationStage) string
}

var cyrillicLabels = labels{
	title:      "Воронка откликов",
	generated:  "Сформирован",
	total:      "Всего откликов",
	stage:      "Этап",
	current:    "Сейчас на этапе",
	cumulative: "Достигли этапа",
	conversion: "Конверсия",
	stageTitle: models.ApplicationStage.Title,
}

var latinLabels = labels{
	title:      "Application funnel",
	generated:  "Generated",
	total:      "Total applications",
	stage:      "Stage",
	current:    "Current",
	cumulative: "Reached",
	conversion: "Conversion",
	stageTitle: func(stage models.ApplicationStage) string { return string(stage) },
}

type impl struct {
	fontDir string
	labels  labels
}

func (i impl) FunnelReport(stages []models.ApplicationStage, view funnel.View, generatedAt time.Time) (buf *bytes.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("FunnelReport panic recover: %v", r)
		}
	}()
	pdf, family := i.newDocument()
	if pdf.Error() != nil {
		return nil, errors.Wrap(pdf.Error(), "ошибка подготовки pdf")
	}
	pdf.AddPage()

	// заголовок
	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(0, 10, i.labels.title, "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s: %s", i.labels.generated, generatedAt.Format("02.01.2006 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("%s: %d", i.labels.total, view.Total), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// таблица
	widths := []float64{60, 40, 40, 40}
	pdf.SetFont(family, "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for idx, header := range []string{i.labels.stage, i.labels.current, i.labels.cumulative, i.labels.conversion} {
		pdf.CellFormat(widths[idx], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	rates := make(map[models.ApplicationStage]float64, len(view.Conversions))
	for _, conversion := range view.Conversions {
		rates[conversion.From] = conversion.Rate
	}
	pdf.SetFont(family, "", 11)
	for _, stage := range stages {
		rate := "-"
		if value, ok := rates[stage]; ok {
			rate = fmt.Sprintf("%.1f%%", value*100)
		}
		pdf.CellFormat(widths[0], 8, i.labels.stageTitle(stage), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprint(view.Current[stage]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 8, fmt.Sprint(view.Cumulative[stage]), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, rate, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	buf = new(bytes.Buffer)
	if err = pdf.Output(buf); err != nil {
		return nil, errors.Wrap(err, "ошибка формирования pdf")
	}
	return buf, nil
}

func (i impl) newDocument() (*fpdf.Fpdf, string) {
	if i.fontDir == "" {
		return fpdf.New("P", "mm", "A4", ""), "Helvetica"
	}
	pdf := fpdf.New("P", "mm", "A4", i.fontDir)
	pdf.AddUTF8Font(fontFamily, "", "Arial.ttf")
	pdf.AddUTF8Font(fontFamily, "B", "Arial Bold.ttf")
	return pdf, fontFamily
}
