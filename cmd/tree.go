package cmd

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"text2phenotype.com/gst/export"
	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/preprocess"
	"text2phenotype.com/gst/suffixtree"
)

var (
	treeFormat     string
	treeTerminator string
	treeOutput     string
)

var treeCmd = &cobra.Command{
	Use:   "tree [file]",
	Short: "Build the suffix tree of a terminated corpus",
	Long: `Read a corpus whose documents are closed by the terminator, build its
generalised suffix tree and write it as JSON or as a Graphviz digraph. Line
breaks are not part of the corpus: a line after a terminator starts the next
document, any other line continues the current one after a blank.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if utf8.RuneCountInString(treeTerminator) != 1 {
			return fmt.Errorf("terminator %q is not a single character", treeTerminator)
		}
		terminator, _ := utf8.DecodeRuneInString(treeTerminator)
		if treeFormat != "json" && treeFormat != "dot" {
			return fmt.Errorf("unknown format %q, want json or dot", treeFormat)
		}

		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()
		corpus, err := preprocess.ReadCorpus(in, terminator)
		if err != nil {
			return err
		}

		gstLogger := logger.NewLogger("Tree command")
		tree := suffixtree.New(
			suffixtree.WithTerminator(terminator),
			suffixtree.WithLogger(gstLogger),
			suffixtree.WithCapacity(len(corpus)),
		)
		if err := tree.AddCorpus(corpus); err != nil {
			return err
		}
		gstLogger.Info().
			Int("documents", len(tree.Documents())).
			Int("text_length", tree.Text().Len()).
			Int("nodes", tree.NodeCount()).
			Msg("Suffix tree built")

		out, err := openOutput(cmd, treeOutput)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := out.Close(); err == nil {
				err = closeErr
			}
		}()
		if treeFormat == "dot" {
			return export.Dot(tree, out)
		}
		doc, err := export.JSON(tree, len(tree.Documents()))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(doc))
		return err
	},
}

func init() {
	treeCmd.Flags().StringVarP(&treeFormat, "format", "f", "json", "Output format (json, dot)")
	treeCmd.Flags().StringVarP(&treeTerminator, "terminator", "t", string(suffixtree.DefaultTerminator), "Document terminator")
	treeCmd.Flags().StringVarP(&treeOutput, "output", "o", "", "Write the tree to this file instead of stdout")
	rootCmd.AddCommand(treeCmd)
}
