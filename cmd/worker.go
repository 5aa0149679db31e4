package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/worker"
)

const pipelineStartMaxRetries = 5

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process corpus tasks from RMQ",
	Long: `Consume corpus tasks from the gst queue, build their suffix trees and store the
results in S3. With GST_REST_API_ACTIVE the HTTP API is served alongside.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gstLogger := logger.NewLogger("Main")

		//Load Pipeline
		var ppln pipeline.Pipeline
		var configsHash uint64
		var err error
		for retry := 0; retry < pipelineStartMaxRetries; retry++ {
			ppln, configsHash, err = loadPipeline(configDir)
			if err == nil {
				break
			}
			gstLogger.Err(err).Msg("Failed to load pipeline. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			gstLogger.Error().Err(err).Msgf("Could not start pipelines after %d retries, exiting", pipelineStartMaxRetries)
			return err
		}
		gstLogger.Info().Msg("Pipelines loaded")

		if config.RestAPIActive {
			go func() {
				gstLogger.Info().Msg("Starting API service")
				err := serveAPI(ppln, config.RestAPIPort, gstLogger)
				gstLogger.Fatal().Caller().Err(err).Msg("REST API stopped with error")
			}()
		}

		gstLogger.Info().Msg("Start GST Worker")
		for {
			rmqWorker, err := worker.New(ppln, configsHash)
			if err != nil {
				gstLogger.Error().Err(err).Msg("Could not initialize RMQ worker")
				return err
			}
			err = rmqWorker.StartWorker()
			if err != nil {
				gstLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
				time.Sleep(5 * time.Second)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
