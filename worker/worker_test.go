package worker

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/tasks"
)

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	pipelineMockConfig
	// zero value means the default worker configuration
	worker *Config
}

type mockedClients struct {
	redis    *redisMock
	rmq      *rmqMock
	s3       *s3Mock
	pipeline *pipelineMock
}

type methodsCalls struct {
	redis    redisMockCalls
	rmq      rmqMockCalls
	s3       s3MockCalls
	pipeline pipelineCall
}

func testConfiguration(t *testing.T, config mockedClientsConfig, expectedCalls methodsCalls) *mockedClients {
	worker, mocks := configureWorker(config)
	worker.processMessage(&amqp.Delivery{
		Body: []byte(`{"redis_key":"corpus-task-1","work_type":"gst"}`),
	})
	calls := methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
	if !reflect.DeepEqual(calls, expectedCalls) {
		t.Errorf("Got unexpected called methods set.\nExpected:\n%+v\nGot:\n%+v", expectedCalls, calls)
	}
	return mocks
}

func configureWorker(config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	pplnMock := getPipelineMock(config.pipelineMockConfig)

	gstLogger := logger.NewLogger("Test Worker")
	workerConfig := Config{TaskMaxRetries: 3, CacheResults: true}
	if config.worker != nil {
		workerConfig = *config.worker
	}

	return &Worker{
			config:      workerConfig,
			redis:       redis,
			s3:          s3,
			rmq:         rmq,
			gstLogger:   &gstLogger,
			ppln:        pplnMock.ppln,
			configsHash: 42,
		}, &mockedClients{
			redis:    redis,
			rmq:      rmq,
			s3:       s3,
			pipeline: pplnMock,
		}
}

// calls of a task that ran the pipeline and finished
func completedCalls() methodsCalls {
	return methodsCalls{
		redis: redisMockCalls{
			getCorpusTask: true, getJobTask: true, onTaskStarted: true,
			getCachedResult: true, cacheResult: true, onTaskComplete: true,
		},
		rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		s3: s3MockCalls{
			getCorpusText:   true,
			saveResultsFile: true,
		},
		pipeline: pipelineCall{true},
	}
}

func TestWorker(t *testing.T) {
	t.Run("Successful", testSuccessfulTask)
	t.Run("Successful with job_task.stop_corpora_on_failure == True", testSuccessfulTaskWithJobCheck)
	t.Run("Reused cached result", testCachedResult)
	t.Run("Result cache unavailable", testCacheLookupFailed)
	t.Run("Failed to cache result", testCacheStoreFailed)
	t.Run("Result cache disabled", testCacheDisabled)
	t.Run("Failed to get Corpus task", testGetCorpusTaskFailed)
	t.Run("Failed to get Job task", testGetJobTaskFailed)
	t.Run("Already complete with success", testAlreadyCompletedSuccessfully)
	t.Run("Already complete with failure", testAlreadyCompletedWithFailure)
	t.Run("User cancelled", testUserCancelled)
	t.Run("Exceeded attempts", testExceededAttempts)
	t.Run("Cancelled because other corpus already failed", testCancelledBecauseOfOtherCorpusFailure)
	t.Run("Failed to update task in onTaskStarted", testFailedToUpdateOnTaskStarted)
	t.Run("Failed to load data from S3", testFailedToFetchFromS3)
	t.Run("Failed due to pipeline error", testPipelineError)
	t.Run("Failed due to pipeline panic", testPipelinePanic)
	t.Run("Failed to update task in onTaskFailedWithError", testFailedToUpdateOnTaskFailedWithError)
	t.Run("Failed to update task in onTaskComplete", testFailedToUpdateOnTaskComplete)
	t.Run("Failed to save result to S3", testFailedToSaveToS3)
	t.Run("Failed to acknowledge delivery", testFailedAckDelivery)
	t.Run("Failed to ping sequencer", testFailedPingSequencer)
}

func testSuccessfulTask(t *testing.T) {
	mocks := testConfiguration(t, mockedClientsConfig{}, completedCalls())

	task := mocks.redis.completed
	require.NotNil(t, task)
	assert.Equal(t, "processed/corpora/corpus-1/corpus-task-1.gst_results.json", task.resultsFileKey)
	assert.Equal(t, corpusHash(42, []byte("some corpus. another phrase.")), task.corpusHash)
	assert.False(t, task.cacheHit)
}

func testSuccessfulTaskWithJobCheck(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{StopCorporaOnFailure: true}},
			},
		},
		completedCalls(),
	)
}

func testCachedResult(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getCachedResult: withValue{returnedValue: "processed/corpora/corpus-0/earlier.gst_results.json"},
			},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true, getJobTask: true, onTaskStarted: true,
				getCachedResult: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3:  s3MockCalls{getCorpusText: true},
		},
	)

	task := mocks.redis.completed
	require.NotNil(t, task)
	assert.True(t, task.cacheHit)
	assert.Equal(t, "processed/corpora/corpus-0/earlier.gst_results.json", task.resultsFileKey)
}

func testCacheLookupFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getCachedResult: withValue{fail: true}},
		},
		completedCalls(),
	)
}

func testCacheStoreFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{cacheResult: failingMethod{fail: true}},
		},
		completedCalls(),
	)
}

func testCacheDisabled(t *testing.T) {
	expected := completedCalls()
	expected.redis.getCachedResult = false
	expected.redis.cacheResult = false
	testConfiguration(
		t,
		mockedClientsConfig{worker: &Config{TaskMaxRetries: 3}},
		expected,
	)
}

func testAlreadyCompletedSuccessfully(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getCorpusTask: withValue{
					returnedValue: tasks.CorpusTask{
						TaskStatuses: tasks.CorpusTaskStatuses{GST: tasks.CorpusTaskInfo{Status: tasks.TaskStatusCompletedSuccess}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getCorpusTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testAlreadyCompletedWithFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getCorpusTask: withValue{
					returnedValue: tasks.CorpusTask{
						TaskStatuses: tasks.CorpusTaskStatuses{GST: tasks.CorpusTaskInfo{Status: tasks.TaskStatusCompletedFailure}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getCorpusTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testUserCancelled(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getCorpusTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testExceededAttempts(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getCorpusTask: withValue{
					returnedValue: tasks.CorpusTask{
						TaskStatuses: tasks.CorpusTaskStatuses{GST: tasks.CorpusTaskInfo{Attempts: 3}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getCorpusTask: true, getJobTask: true, onTaskExceededRetries: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testCancelledBecauseOfOtherCorpusFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{
					returnedValue: tasks.JobTask{
						StopCorporaOnFailure: true,
						FailedCorpora:        []string{"some other corpus"},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getCorpusTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskStarted(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true, getJobTask: true, onTaskStarted: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskComplete(t *testing.T) {
	expected := completedCalls()
	expected.rmq = rmqMockCalls{rejectDelivery: true}
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
		},
		expected,
	)
}

func testFailedToFetchFromS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{getCorpusText: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getCorpusText: true,
			},
		},
	)
}

func pipelineFailedCalls() methodsCalls {
	return methodsCalls{
		redis: redisMockCalls{
			getCorpusTask: true, getJobTask: true, onTaskStarted: true,
			getCachedResult: true, onTaskFailedWithError: true,
		},
		rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		s3: s3MockCalls{
			getCorpusText: true,
		},
		pipeline: pipelineCall{true},
	}
}

func testPipelineError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
		},
		pipelineFailedCalls(),
	)
}

func testPipelinePanic(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{panic: true},
		},
		pipelineFailedCalls(),
	)
}

func testFailedToUpdateOnTaskFailedWithError(t *testing.T) {
	expected := pipelineFailedCalls()
	expected.rmq = rmqMockCalls{rejectDelivery: true}
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
			redisMockConfig:    redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
		},
		expected,
	)
}

func testFailedToSaveToS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{saveResultsFile: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true, getJobTask: true, onTaskStarted: true,
				getCachedResult: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getCorpusText:   true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedAckDelivery(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
		},
		completedCalls(),
	)
}

func testFailedPingSequencer(t *testing.T) {
	expected := completedCalls()
	expected.rmq = rmqMockCalls{pingSequencer: true, rejectDelivery: true}
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{pingSequencer: failingMethod{fail: true}},
		},
		expected,
	)
}

func testGetCorpusTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getCorpusTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testGetJobTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getCorpusTask: true, getJobTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func TestCreateTaskRejectsInvalidMessage(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	worker.processMessage(&amqp.Delivery{Body: []byte("not json")})
	assert.Equal(t, rmqMockCalls{rejectDelivery: true}, mocks.rmq.calls)
	assert.False(t, mocks.redis.calls.getCorpusTask)
}

func TestTaskInfoUpdates(t *testing.T) {
	var info tasks.CorpusTaskInfo

	markStarted(&info)
	assert.Equal(t, tasks.TaskStatusStarted, info.Status)
	assert.Equal(t, 1, info.Attempts)
	require.NotNil(t, info.StartedAt)
	assert.Nil(t, info.CompletedAt)

	markFailed(&info, errors.New("tree exploded"))
	assert.Equal(t, tasks.TaskStatusFailed, info.Status)
	assert.Equal(t, []string{"tree exploded"}, info.ErrorMessages)

	markExceededRetries(&info, 1)
	assert.Equal(t, tasks.TaskStatusCompletedFailure, info.Status)
	assert.Equal(t, 2, info.Attempts)
	assert.Equal(t, "Task has exceeded retries. (Attempts: 2, max retries: 1 )", info.ErrorMessages[1])

	// a completed failure is not turned into a success
	markComplete(&info, &Task{resultsFileKey: "key", corpusHash: 255, cacheHit: true})
	assert.Equal(t, tasks.TaskStatusCompletedFailure, info.Status)
	assert.Equal(t, "key", info.ResultsFileKey)
	assert.Equal(t, "ff", info.CorpusHash)
	assert.True(t, info.CacheHit)

	var cancelled tasks.CorpusTaskInfo
	markCancelled(&cancelled, "job canceled")
	assert.Equal(t, tasks.TaskStatusCanceled, cancelled.Status)
	assert.Equal(t, []string{"job canceled"}, cancelled.ErrorMessages)
	require.NotNil(t, cancelled.CompletedAt)
}

func TestSequencerPublishing(t *testing.T) {
	message := Message{WorkType: "gst", RedisKey: "corpus-task-1", Sender: "sequencer", Version: "1"}
	task := &Task{
		delivery:       &amqp.Delivery{MessageId: "message-1"},
		corpusTask:     &tasks.CorpusTask{CorpusID: "corpus-1"},
		message:        &message,
		resultsFileKey: "processed/corpora/corpus-1/corpus-task-1.gst_results.json",
		corpusHash:     255,
		cacheHit:       true,
	}

	publishing, err := sequencerPublishing(task)
	require.NoError(t, err)
	assert.Equal(t, "application/json", publishing.ContentType)
	assert.Equal(t, "message-1", publishing.CorrelationId)
	assert.False(t, publishing.Timestamp.IsZero())

	var reply sequencerReply
	require.NoError(t, json.Unmarshal(publishing.Body, &reply))
	assert.Equal(t, sequencerReply{
		Message:        Message{WorkType: "gst", RedisKey: "corpus-task-1", Sender: "gst", Version: "1"},
		CorpusID:       "corpus-1",
		ResultsFileKey: "processed/corpora/corpus-1/corpus-task-1.gst_results.json",
		CorpusHash:     "ff",
		CacheHit:       true,
	}, reply)
	assert.Equal(t, "sequencer", message.Sender)

	// a task that did not run only echoes its message
	skipped := &Task{corpusTask: &tasks.CorpusTask{CorpusID: "corpus-1"}, message: &message}
	publishing, err = sequencerPublishing(skipped)
	require.NoError(t, err)
	assert.Empty(t, publishing.CorrelationId)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(publishing.Body, &fields))
	assert.NotContains(t, fields, "results_file_key")
	assert.NotContains(t, fields, "corpus_hash")
	assert.NotContains(t, fields, "cache_hit")
	assert.Equal(t, "gst", fields["sender"])
}

func TestCorpusHash(t *testing.T) {
	text := []byte("The cat sat.")
	assert.Equal(t, corpusHash(1, text), corpusHash(1, text))
	assert.NotEqual(t, corpusHash(1, text), corpusHash(2, text))
}
