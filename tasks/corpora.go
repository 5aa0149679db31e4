package tasks

import (
	"text2phenotype.com/gst/redis"
)

const CorporaDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// CorpusTask is the part of a sequencer corpus document the gst worker
// reads and writes. Other fields of the stored document are preserved.
type CorpusTask struct {
	CorpusID     string             `json:"corpus_id"`
	JobID        string             `json:"job_id"`
	TextFileKey  string             `json:"text_file_key"`
	TaskStatuses CorpusTaskStatuses `json:"task_statuses"`
}

type CorpusTaskStatuses struct {
	GST CorpusTaskInfo `json:"gst"`
}

type CorpusTaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	CorpusHash     string     `json:"corpus_hash,omitempty"`
	CacheHit       bool       `json:"cache_hit"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	ErrorMessages  []string   `json:"error_messages"`
}

type CorpusTasks struct {
	client redis.Client
}

func (tasks CorpusTasks) Get(redisKey string) (*CorpusTask, error) {
	var task CorpusTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks CorpusTasks) Update(redisKey string, updateFunc func(task *CorpusTask)) error {
	var task CorpusTask
	return tasks.client.UpdateDocument(redisKey, &task, func() error {
		updateFunc(&task)
		return nil
	})
}
