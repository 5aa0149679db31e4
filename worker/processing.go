package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"text2phenotype.com/gst/metrics"
	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/tasks"
	"text2phenotype.com/gst/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery   *amqp.Delivery
	corpusTask *tasks.CorpusTask
	message    *Message
	redisKey   string
	gstLogger  *zerolog.Logger

	// set by runPipeline
	corpusHash     uint64
	resultsFileKey string
	cacheHit       bool
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.gstLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.gstLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task); err != nil {
		task.gstLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.gstLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.gstLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	corpusTask, err := worker.redis.getCorpusTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus task for message, got error %w", err)
	}
	taskLogger := worker.gstLogger.With().
		Str("tid", message.RedisKey).
		Str("corpus_id", corpusTask.CorpusID).
		Logger()
	task := Task{
		delivery:   delivery,
		corpusTask: corpusTask,
		redisKey:   message.RedisKey,
		message:    &message,
		gstLogger:  &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.gstLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		metrics.TaskSkipped()
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.gstLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	done := metrics.TaskStarted()
	if err = worker.runPipeline(task); err != nil {
		done(err)
		task.gstLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	done(nil)
	task.gstLogger.Info().Bool("cache_hit", task.cacheHit).Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.gstLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.gstLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.corpusTask.TaskStatuses.GST.Attempts)
	data, err := worker.s3.getCorpusText(task)
	if err != nil {
		task.gstLogger.Err(err).Caller().Msg("Could not fetch corpus text from s3")
		return fmt.Errorf("failed fetch data from s3: %w", err)
	}

	task.corpusHash = corpusHash(worker.configsHash, data)
	if worker.config.CacheResults && worker.reuseResult(task) {
		return nil
	}

	request := pipeline.Request{
		Tid:  task.redisKey,
		Text: string(data),
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.gstLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	task.gstLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(task, result); err != nil {
		task.gstLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	task.resultsFileKey = getResultsFileKey(task)

	if worker.config.CacheResults {
		if err := worker.redis.cacheResult(task.corpusHash, task.resultsFileKey); err != nil {
			task.gstLogger.Warn().Err(err).Msg("Could not cache result file key")
		}
	}
	return nil
}

// reuseResult points task at the stored result of an identical corpus. A
// failing cache lookup only costs a pipeline run.
func (worker *Worker) reuseResult(task *Task) bool {
	resultsFileKey, ok, err := worker.redis.getCachedResult(task.corpusHash)
	if err != nil {
		task.gstLogger.Warn().Err(err).Msg("Could not query result cache")
		return false
	}
	if !ok {
		return false
	}
	task.gstLogger.Info().Str("results_file_key", resultsFileKey).Msg("Identical corpus already processed, reusing its result")
	task.resultsFileKey = resultsFileKey
	task.cacheHit = true
	return true
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.corpusTask.TaskStatuses.GST
	taskLogger := task.gstLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for corpus task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if taskJob.StopCorporaOnFailure && len(taskJob.FailedCorpora) > 0 {
		failedCorpus := taskJob.FailedCorpora[0]
		taskLogger.Info().Msgf("Task is not required because corpus \"%s\" of the job already completed failure. "+
			"Sending back to Sequencer.", failedCorpus)
		err := worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because corpus \"%s\" of the job has failed "+
					"and the job won't be processed successfully.",
				tasks.TaskStatusCanceled,
				failedCorpus,
			),
		)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("GST task has exceeded retries. Sending back to Sequencer.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
