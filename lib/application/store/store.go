package applicationstore

import (
	"context"
	applicationhistorystore "job-pipeline-backend/lib/application-history/store"
	stageschema "job-pipeline-backend/lib/pipeline/stage-schema"
	"job-pipeline-backend/models"
	dbmodels "job-pipeline-backend/models/db"
	pipelinemodels "job-pipeline-backend/models/pipeline"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("отклик не найден в БД")

// Provider удаленное хранилище откликов для движка воронки
type Provider interface {
	List(ctx context.Context) ([]pipelinemodels.Entity, error)
	UpdateStage(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.StageUpdate, error)
	DeleteMany(ctx context.Context, ids []string) (pipelinemodels.DeleteOutcome, error)
	Create(ctx context.Context, rec pipelinemodels.Entity) (pipelinemodels.Entity, error)
}

func NewInstance(DB *gorm.DB, schema *stageschema.Schema) Provider {
	return &impl{
		db:     DB,
		schema: schema,
		now:    time.Now,
	}
}

type impl struct {
	db     *gorm.DB
	schema *stageschema.Schema
	now    func() time.Time
}

func (i impl) List(ctx context.Context) ([]pipelinemodels.Entity, error) {
	list := []dbmodels.Application{}
	err := i.db.
		WithContext(ctx).
		Model(dbmodels.Application{}).
		Order("id").
		Find(&list).
		Error
	if err != nil {
		return nil, errors.Wrap(err, "ошибка получения списка откликов")
	}
	result := make([]pipelinemodels.Entity, 0, len(list))
	for _, rec := range list {
		result = append(result, rec.ToEntity())
	}
	return result, nil
}

func (i impl) UpdateStage(ctx context.Context, id string, stage models.ApplicationStage) (pipelinemodels.StageUpdate, error) {
	result := pipelinemodels.StageUpdate{}
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := dbmodels.Application{}
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&rec).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		changedAt := i.now().UTC()
		highWater := raiseHighWater(i.schema, rec.HighWaterStage, stage)
		updMap := map[string]interface{}{
			"current_stage":    stage,
			"high_water_stage": highWater,
			"stage_changed_at": changedAt,
		}
		err = tx.
			Model(&dbmodels.Application{}).
			Where("id = ?", id).
			Updates(updMap).
			Error
		if err != nil {
			return err
		}
		_, err = applicationhistorystore.NewInstance(tx).Create(dbmodels.ApplicationHistory{
			ApplicationID: id,
			ActionType:    dbmodels.HistoryTypeStageChange,
			Changes: dbmodels.ApplicationChanges{
				Description: "Смена этапа",
				Data: []dbmodels.ApplicationChange{
					{Field: "current_stage", OldValue: rec.CurrentStage, NewValue: stage},
				},
			},
		})
		if err != nil {
			return errors.Wrap(err, "ошибка сохранения истории отклика")
		}
		result = pipelinemodels.StageUpdate{
			ID:             id,
			CurrentStage:   stage,
			StageChangedAt: changedAt,
		}
		return nil
	})
	if err != nil {
		return pipelinemodels.StageUpdate{}, errors.Wrapf(err, "ошибка смены этапа отклика %s", id)
	}
	return result, nil
}

// DeleteMany каждая запись удаляется в своей транзакции, поэтому результат
// может быть частичным
func (i impl) DeleteMany(ctx context.Context, ids []string) (pipelinemodels.DeleteOutcome, error) {
	outcome := pipelinemodels.DeleteOutcome{
		Succeeded: []string{},
		Failed:    []string{},
	}
	for _, id := range ids {
		err := i.deleteOne(ctx, id)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return outcome, err
			}
			log.WithError(err).WithField("id", id).Warn("отклик не удален")
			outcome.Failed = append(outcome.Failed, id)
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, id)
	}
	return outcome, nil
}

func (i impl) deleteOne(ctx context.Context, id string) error {
	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.
			Where("id = ?", id).
			Delete(&dbmodels.Application{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		_, err := applicationhistorystore.NewInstance(tx).Create(dbmodels.ApplicationHistory{
			ApplicationID: id,
			ActionType:    dbmodels.HistoryTypeDelete,
			Changes: dbmodels.ApplicationChanges{
				Description: "Отклик удален",
			},
		})
		return err
	})
}

func (i impl) Create(ctx context.Context, rec pipelinemodels.Entity) (pipelinemodels.Entity, error) {
	rec.StageChangedAt = i.now().UTC()
	rec.HighWaterStage = raiseHighWater(i.schema, rec.HighWaterStage, rec.CurrentStage)
	row := dbmodels.NewApplication(rec)
	err := i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Omit(clause.Associations).
			Create(&row).
			Error
		if err != nil {
			return err
		}
		_, err = applicationhistorystore.NewInstance(tx).Create(dbmodels.ApplicationHistory{
			ApplicationID: row.ID,
			ActionType:    dbmodels.HistoryTypeAdded,
			Changes: dbmodels.ApplicationChanges{
				Description: "Отклик добавлен",
				Data: []dbmodels.ApplicationChange{
					{Field: "current_stage", NewValue: row.CurrentStage},
				},
			},
		})
		return err
	})
	if err != nil {
		return pipelinemodels.Entity{}, errors.Wrap(err, "ошибка добавления отклика")
	}
	return row.ToEntity(), nil
}

// raiseHighWater отметка максимального этапа никогда не понижается
func raiseHighWater(schema *stageschema.Schema, highWater, stage models.ApplicationStage) models.ApplicationStage {
	if !schema.IsProgressing(highWater) {
		highWater = schema.Entry()
	}
	if schema.IsProgressing(stage) {
		highWater = schema.Higher(highWater, stage)
	}
	return highWater
}
