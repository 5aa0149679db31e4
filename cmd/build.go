package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"text2phenotype.com/gst/pipeline"
	"text2phenotype.com/gst/preprocess"
)

var buildOutput string

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Run the configured pipelines over a text file",
	Long: `Normalise the text of file (or stdin), build one suffix tree per configuration
and write the JSON results keyed by configuration name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ppln, _, err := loadPipeline(configDir)
		if err != nil {
			return err
		}

		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()
		text, err := preprocess.ReadText(in)
		if err != nil {
			return fmt.Errorf("reading text: %w", err)
		}

		tid := "stdin"
		if len(args) > 0 && args[0] != "-" {
			tid = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		result, ok := <-ppln(pipeline.Request{Text: text, Tid: tid})
		if !ok {
			return errors.New("pipeline returned no result")
		}

		out, err := openOutput(cmd, buildOutput)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
		}()
		_, err = fmt.Fprintln(out, result)
		return err
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Write the result to this file instead of stdout")
	rootCmd.AddCommand(buildCmd)
}
