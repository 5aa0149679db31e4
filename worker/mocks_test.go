package worker

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/tasks"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   pipeline.Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail   bool
	panic  bool
	result string
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
	// last task seen by onTaskComplete
	completed *Task
}

type redisMockConfig struct {
	getCorpusTask         withValue
	getJobTask            withValue
	getCachedResult       withValue
	cacheResult           failingMethod
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getCorpusTask         bool
	getJobTask            bool
	getCachedResult       bool
	cacheResult           bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	getCorpusText   withValue
	saveResultsFile failingMethod
}

type s3MockCalls struct {
	getCorpusText   bool
	saveResultsFile bool
}

func (mock s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	switch {
	case config.panic:
		mock.ppln = func(request pipeline.Request) <-chan string {
			mock.calls.pipeline = true
			panic("pipeline exploded")
		}
	case config.fail:
		mock.ppln = func(request pipeline.Request) <-chan string {
			mock.calls.pipeline = true
			ch := make(chan string)
			close(ch)
			return ch
		}
	default:
		mock.ppln = func(request pipeline.Request) <-chan string {
			mock.calls.pipeline = true
			ch := make(chan string, 1)
			ch <- mock.config.result
			close(ch)
			return ch
		}
	}
	return &mock
}

func (mock *redisMock) getCorpusTask(redisKey string) (*tasks.CorpusTask, error) {
	mock.calls.getCorpusTask = true
	if mock.config.getCorpusTask.fail {
		return nil, errors.New("failed to get corpus task")
	}
	switch mock.config.getCorpusTask.returnedValue.(type) {
	case tasks.CorpusTask:
		task := mock.config.getCorpusTask.returnedValue.(tasks.CorpusTask)
		return &task, nil
	default:
		return &tasks.CorpusTask{CorpusID: "corpus-1", JobID: "job-1"}, nil
	}
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		jobTask := mock.config.getJobTask.returnedValue.(tasks.JobTask)
		return &jobTask, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) getCachedResult(hash uint64) (string, bool, error) {
	mock.calls.getCachedResult = true
	if mock.config.getCachedResult.fail {
		return "", false, errors.New("failed to query result cache")
	}
	switch mock.config.getCachedResult.returnedValue.(type) {
	case string:
		return mock.config.getCachedResult.returnedValue.(string), true, nil
	default:
		return "", false, nil
	}
}

func (mock *redisMock) cacheResult(hash uint64, resultsFileKey string) error {
	mock.calls.cacheResult = true
	if mock.config.cacheResult.fail {
		return errors.New("failed to cache result")
	}
	return nil
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update corpus task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update corpus task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update corpus task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update corpus task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	mock.completed = task
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update corpus task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, gstLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) deliveries() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) requestErrors() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) responseErrors() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getCorpusText(task *Task) ([]byte, error) {
	mock.calls.getCorpusText = true
	if mock.config.getCorpusText.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch mock.config.getCorpusText.returnedValue.(type) {
	case []byte:
		return mock.config.getCorpusText.returnedValue.([]byte), nil
	default:
		return []byte("some corpus. another phrase."), nil
	}
}

func (mock *s3Mock) saveResultsFile(task *Task, result string) error {
	mock.calls.saveResultsFile = true
	if mock.config.saveResultsFile.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
