package tasks

import (
	"text2phenotype.com/gst/redis"
)

const JobsDB redis.DB = 1

type JobTask struct {
	UserCanceled         bool     `json:"user_canceled"`
	StopCorporaOnFailure bool     `json:"stop_corpora_on_failure"`
	FailedCorpora        []string `json:"failed_corpora"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Update changes the job document and its cached properties together.
func (tasks JobTasks) Update(redisKey string, updateFunc func(task *JobTask)) error {
	for _, key := range []string{redisKey, cachedPropertiesKey(redisKey)} {
		var task JobTask
		err := tasks.client.UpdateDocument(key, &task, func() error {
			updateFunc(&task)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
