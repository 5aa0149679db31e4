package worker

import (
	"fmt"

	"text2phenotype.com/gst/tasks"
)

type redisTransactions interface {
	getCorpusTask(redisKey string) (*tasks.CorpusTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getCachedResult(hash uint64) (string, bool, error)
	cacheResult(hash uint64, resultsFileKey string) error
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Corpora.Update(task.redisKey, func(corpusTask *tasks.CorpusTask) {
		markStarted(&corpusTask.TaskStatuses.GST)
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Corpora.Update(task.redisKey, func(corpusTask *tasks.CorpusTask) {
		markCancelled(&corpusTask.TaskStatuses.GST, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Jobs.Update(task.corpusTask.JobID, func(jobTask *tasks.JobTask) {
		jobTask.FailedCorpora = append(jobTask.FailedCorpora, task.corpusTask.CorpusID)
	})
	if err != nil {
		return err
	}
	return wrapper.tasksClient.Corpora.Update(task.redisKey, func(corpusTask *tasks.CorpusTask) {
		markExceededRetries(&corpusTask.TaskStatuses.GST, maxRetries)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Corpora.Update(task.redisKey, func(corpusTask *tasks.CorpusTask) {
		markFailed(&corpusTask.TaskStatuses.GST, err)
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Corpora.Update(task.redisKey, func(corpusTask *tasks.CorpusTask) {
		markComplete(&corpusTask.TaskStatuses.GST, task)
	})
}

func (wrapper *redisClientWrapper) getCorpusTask(redisKey string) (*tasks.CorpusTask, error) {
	return wrapper.tasksClient.Corpora.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.corpusTask.JobID)
}

func (wrapper *redisClientWrapper) getCachedResult(hash uint64) (string, bool, error) {
	return wrapper.tasksClient.Results.Get(hash)
}

func (wrapper *redisClientWrapper) cacheResult(hash uint64, resultsFileKey string) error {
	return wrapper.tasksClient.Results.Put(hash, resultsFileKey)
}

func markStarted(info *tasks.CorpusTaskInfo) {
	info.Status = tasks.TaskStatusStarted
	info.Attempts += 1
	info.StartedAt = getFormattedNow()
	info.CompletedAt = nil
}

func markCancelled(info *tasks.CorpusTaskInfo, errorMessages ...string) {
	info.Status = tasks.TaskStatusCanceled
	info.StartedAt = getFormattedNow()
	info.CompletedAt = getFormattedNow()
	info.Attempts += 1
	info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
}

func markExceededRetries(info *tasks.CorpusTaskInfo, maxRetries int) {
	info.Status = tasks.TaskStatusCompletedFailure
	info.StartedAt = getFormattedNow()
	info.CompletedAt = getFormattedNow()
	info.Attempts += 1
	info.ErrorMessages = append(
		info.ErrorMessages,
		fmt.Sprintf(
			"Task has exceeded retries. (Attempts: %d, max retries: %d )",
			info.Attempts,
			maxRetries,
		),
	)
}

func markFailed(info *tasks.CorpusTaskInfo, err error) {
	info.Status = tasks.TaskStatusFailed
	info.CompletedAt = getFormattedNow()
	info.ErrorMessages = append(info.ErrorMessages, err.Error())
}

func markComplete(info *tasks.CorpusTaskInfo, task *Task) {
	if !info.Status.Complete() {
		info.Status = tasks.TaskStatusCompletedSuccess
	}
	info.CompletedAt = getFormattedNow()
	info.ResultsFileKey = task.resultsFileKey
	info.CorpusHash = formatHash(task.corpusHash)
	info.CacheHit = task.cacheHit
}
