package applicationhistoryhandler

import (
	applicationhistorystore "job-pipeline-backend/lib/application-history/store"
	apimodels "job-pipeline-backend/models/api"
	pipelineapimodels "job-pipeline-backend/models/api/pipeline"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	List(applicationID string, filter apimodels.Pagination) ([]pipelineapimodels.ApplicationHistoryView, int64, error)
}

func NewHandler(DB *gorm.DB) Provider {
	return impl{
		store: applicationhistorystore.NewInstance(DB),
	}
}

type impl struct {
	store applicationhistorystore.Provider
}

func (i impl) List(applicationID string, filter apimodels.Pagination) ([]pipelineapimodels.ApplicationHistoryView, int64, error) {
	rowCount, err := i.store.ListCount(applicationID)
	if err != nil {
		return nil, 0, err
	}

	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	if int64(offset) > rowCount {
		return []pipelineapimodels.ApplicationHistoryView{}, rowCount, nil
	}

	list, err := i.store.List(applicationID, filter)
	if err != nil {
		log.WithError(err).Error("ошибка получения истории отклика")
		return nil, 0, errors.New("ошибка получения истории отклика")
	}
	result := make([]pipelineapimodels.ApplicationHistoryView, 0, len(list))
	for _, rec := range list {
		result = append(result, pipelineapimodels.ConvertHistory(rec))
	}
	return result, rowCount, nil
}
