package coordinator

import (
	"fmt"
	pipelinemodels "job-pipeline-backend/models/pipeline"

	"github.com/pkg/errors"
)

var (
	ErrInvalidStage       = errors.New("неизвестный этап")
	ErrEntityNotFound     = errors.New("отклик не найден")
	ErrRemoteCommitFailed = errors.New("ошибка сохранения изменений")
	ErrNotSupported       = errors.New("операция не поддерживается удаленным хранилищем")
	ErrDisposed           = errors.New("движок воронки остановлен")
)

// RemoteCommitError изменение откачено, Mutation можно повторить
type RemoteCommitError struct {
	Mutation pipelinemodels.Mutation
	Err      error
}

func (e *RemoteCommitError) Error() string {
	return fmt.Sprintf("%s (%s %s): %v", ErrRemoteCommitFailed, e.Mutation.Kind, e.Mutation.EntityID, e.Err)
}

func (e *RemoteCommitError) Unwrap() error {
	return e.Err
}

func (e *RemoteCommitError) Is(target error) bool {
	return target == ErrRemoteCommitFailed
}

func failedItem(id string, err error) pipelinemodels.FailedItem {
	return pipelinemodels.FailedItem{
		ID:    id,
		Error: err.Error(),
		Err:   err,
	}
}
