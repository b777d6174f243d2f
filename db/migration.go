package db

import (
	dbmodels "job-pipeline-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("Запуск миграций")
	if err := DB.AutoMigrate(&dbmodels.Application{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры Application")
	}
	if err := DB.AutoMigrate(&dbmodels.ApplicationHistory{}); err != nil {
		return errors.Wrap(err, "ошибка создания структуры ApplicationHistory")
	}
	log.Info("Миграция прошла успешно")
	return nil
}
