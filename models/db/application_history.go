package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

type ApplicationHistory struct {
	BaseModel
	ApplicationID string             `gorm:"type:varchar(36);index"`
	ActionType    ActionType         `gorm:"type:varchar(255)"`
	Changes       ApplicationChanges `gorm:"type:jsonb"`
}

func (j ApplicationChanges) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *ApplicationChanges) Scan(value interface{}) error {
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, j)
	case string:
		return json.Unmarshal([]byte(data), j)
	case nil:
		return nil
	}
	return errors.Errorf("неподдерживаемый тип jsonb: %T", value)
}

type ApplicationChanges struct {
	Description string              `json:"description"` // Комментарий
	Data        []ApplicationChange `json:"data"`        // Список изменений
}

type ApplicationChange struct {
	Field    string      `json:"field"`     // Измененное поле
	OldValue interface{} `json:"old_value"` // Старое значение
	NewValue interface{} `json:"new_value"` // Новое значение
}

type ActionType string

const (
	HistoryTypeAdded       ActionType = "added"        // Отклик добавлен
	HistoryTypeStageChange ActionType = "stage_change" // Отклик переведен на другой этап
	HistoryTypeDelete      ActionType = "delete"       // Отклик удален
)
