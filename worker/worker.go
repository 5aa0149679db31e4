package worker

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/rmq"
	"text2phenotype.com/gst/s3client"
	"text2phenotype.com/gst/tasks"
)

type Config struct {
	TaskMaxRetries int  `envconfig:"MDL_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
	CacheResults   bool `envconfig:"GST_CACHE_RESULTS" default:"true"`
}

// Worker takes corpus tasks from RMQ, runs the pipeline over the corpus
// text stored in S3 and reports back to the sequencer.
type Worker struct {
	config      Config
	redis       redisTransactions
	s3          s3Transactions
	rmq         rmqTransactions
	gstLogger   *zerolog.Logger
	ppln        pipeline.Pipeline
	configsHash uint64
}

// New connects a worker running ppln. configsHash identifies the loaded
// configurations so cached results of other configurations are not reused.
func New(ppln pipeline.Pipeline, configsHash uint64) (*Worker, error) {
	gstLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		gstLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:      config,
		gstLogger:   &gstLogger,
		ppln:        ppln,
		configsHash: configsHash,
	}
	if err := worker.refreshRMQClient(); err != nil {
		gstLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	if err := worker.refreshS3Client(); err != nil {
		gstLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.rmq.close()
		return nil, err
	}
	if err := worker.refreshRedisClients(); err != nil {
		gstLogger.Error().Err(err).Msg("Could not create Redis client")
		worker.rmq.close()
		worker.s3.close()
		return nil, err
	}
	return &worker, nil
}

func (worker *Worker) StartWorker() error {
	defer worker.Close()
	for {
		select {
		case delivery, ok := <-worker.rmq.deliveries():
			if ok {
				go worker.processMessage(&delivery)
				continue
			}
			worker.gstLogger.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"rmq deliveries channel has been closed and refresh returned error: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.responseErrors():
			if rmqErr == nil {
				continue
			}
			worker.gstLogger.Err(rmqErr).Msg("Response connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"response connection received error and refresh failed with: %w",
					err,
				)
			}
		case rmqErr := <-worker.rmq.requestErrors():
			if rmqErr == nil {
				continue
			}
			worker.gstLogger.Err(rmqErr).Msg("Request connection received error, trying to refresh RMQ client")
			if err := worker.refreshRMQClient(); err != nil {
				return fmt.Errorf(
					"request connection received error and refresh failed with: %w",
					err,
				)
			}
		}
	}
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}

func (worker *Worker) refreshRedisClients() error {
	worker.gstLogger.Info().Msg("Refreshing Redis client")
	if oldClient := worker.redis; oldClient != nil {
		defer oldClient.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.gstLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.redis = &redisClientWrapper{&tasksClient}
	worker.gstLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshRMQClient() error {
	worker.gstLogger.Info().Msg("Refreshing RMQ client")
	if oldClient := worker.rmq; oldClient != nil {
		defer oldClient.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.gstLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.rmq = &rmqClientWrapper{rmqClient}
	worker.gstLogger.Info().Msg("Refreshed RMQ client")
	return nil
}

func (worker *Worker) refreshS3Client() error {
	worker.gstLogger.Info().Msg("Refreshing S3 client")
	if oldClient := worker.s3; oldClient != nil {
		defer oldClient.close()
	}
	s3Client, err := s3client.New()
	if err != nil {
		worker.gstLogger.Err(err).Msg("Failed to refresh S3 client")
		return err
	}
	worker.s3 = &s3ClientWrapper{s3Client}
	worker.gstLogger.Info().Msg("Refreshed S3 client")
	return nil
}
