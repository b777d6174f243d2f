package applicationhistorystore

import (
	apimodels "job-pipeline-backend/models/api"
	dbmodels "job-pipeline-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Provider interface {
	Create(rec dbmodels.ApplicationHistory) (id string, err error)
	ListCount(applicationID string) (count int64, err error)
	List(applicationID string, filter apimodels.Pagination) (list []dbmodels.ApplicationHistory, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.ApplicationHistory) (id string, err error) {
	err = i.db.
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListCount(applicationID string) (count int64, err error) {
	var rowCount int64
	err = i.db.
		Model(dbmodels.ApplicationHistory{}).
		Where("application_id = ?", applicationID).
		Count(&rowCount).
		Error
	if err != nil {
		log.WithError(err).Error("ошибка получения общего количества записей истории отклика")
		return 0, errors.New("ошибка получения общего количества записей истории отклика")
	}
	return rowCount, nil
}

func (i impl) List(applicationID string, filter apimodels.Pagination) (list []dbmodels.ApplicationHistory, err error) {
	list = []dbmodels.ApplicationHistory{}
	tx := i.db.
		Model(dbmodels.ApplicationHistory{}).
		Where("application_id = ?", applicationID)
	page, limit := filter.GetPage()
	i.setPage(tx, page, limit)
	err = tx.Order("created_at").Find(&list).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return list, nil
		}
		return nil, err
	}
	return list, nil
}

func (i impl) setPage(tx *gorm.DB, page, limit int) {
	offset := (page - 1) * limit
	tx.Limit(limit).Offset(offset)
}
