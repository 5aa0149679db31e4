package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"text2phenotype.com/gst/api"
	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/pipeline"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured pipelines over HTTP",
	Long:  `POST / runs the pipelines over the request body; GET /metrics exposes prometheus metrics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gstLogger := logger.NewLogger("Main")
		ppln, _, err := loadPipeline(configDir)
		if err != nil {
			return err
		}
		port := servePort
		if port == "" {
			port = config.RestAPIPort
		}
		return serveAPI(ppln, port, gstLogger)
	},
}

func serveAPI(ppln pipeline.Pipeline, port string, gstLogger zerolog.Logger) error {
	host := fmt.Sprintf(":%s", port)
	server := &http.Server{
		Addr:              host,
		Handler:           api.Handler(ppln),
		ReadHeaderTimeout: 10 * time.Second,
	}
	gstLogger.Info().Msgf("REST API on %s", host)
	return server.ListenAndServe()
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on; defaults to $GST_REST_API_PORT")
	rootCmd.AddCommand(serveCmd)
}
