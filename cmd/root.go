package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/types"
)

// Version is set at build time with -ldflags "-X text2phenotype.com/gst/cmd.Version=...".
var Version = "dev"

type Config struct {
	ConfigPath    string `envconfig:"GST_CONFIG_PATH" default:""`
	RestAPIActive bool   `envconfig:"GST_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"GST_REST_API_PORT" default:"10000"`
}

var (
	config    Config
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "gst",
	Short: "Generalised suffix trees over text corpora",
	Long: `gst builds generalised suffix trees over document corpora and exports them
as JSON, Graphviz or clustering feature vectors. It runs as a one-shot CLI, an
HTTP service or an RMQ worker.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetupLogging()
		if err := envconfig.Process("", &config); err != nil {
			return fmt.Errorf("reading environment: %w", err)
		}
		if !cmd.Flags().Changed("config-dir") && configDir == "" {
			configDir = config.ConfigPath
		}
		return nil
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("gst {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "",
		"Directory of pipeline configurations (*.yaml); defaults to $GST_CONFIG_PATH, then the built-in configuration")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfigurations(dir string) ([]types.Configuration, error) {
	if dir == "" {
		return []types.Configuration{types.DefaultConfiguration()}, nil
	}
	cfgs, err := types.LoadConfigurations(dir)
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no valid configuration in %s", dir)
	}
	return cfgs, nil
}

// loadPipeline returns the pipeline for the configurations of dir and the
// hash identifying them.
func loadPipeline(dir string) (pipeline.Pipeline, uint64, error) {
	cfgs, err := loadConfigurations(dir)
	if err != nil {
		return nil, 0, err
	}
	ppln, err := pipeline.SuffixTree(cfgs)
	if err != nil {
		return nil, 0, err
	}
	return ppln, pipeline.ConfigurationsHash(cfgs), nil
}

// openInput is the named file, or stdin for "" and "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(args[0])
}

// openOutput is the named file, or stdout for "".
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
