package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"text2phenotype.com/gst/features"
	"text2phenotype.com/gst/kwip"
	"text2phenotype.com/gst/metrics"
	"text2phenotype.com/gst/preprocess"
	"text2phenotype.com/gst/suffixtree"
	"text2phenotype.com/gst/utils"
)

// Corpus carries one configuration's documents through the tree stages.
// Err is set by the first stage that failed; later stages pass it on.
type Corpus struct {
	Documents []string
	Types     []*features.Type
	Kwip      *kwip.Result
	Tree      *suffixtree.SuffixTree
	Err       error
}

// NewCorpusBuilder turns normalised text into documents, one per phrase.
// With useKwip the documents are the keyword in phrase contexts instead and
// every keyword becomes a type.
func NewCorpusBuilder(terminator rune, useKwip bool, gstLogger zerolog.Logger) func(in <-chan string) <-chan *Corpus {
	return func(in <-chan string) <-chan *Corpus {
		out := make(chan *Corpus, 1)
		go func() {
			defer close(out)
			var sb strings.Builder
			for text := range in {
				sb.WriteString(text)
			}
			phrases := phraseDocuments(sb.String())
			if !useKwip {
				out <- &Corpus{Documents: phrases, Types: features.TypesFromDocuments(phrases)}
				return
			}

			result := kwip.Build(phrases, terminator).Result()
			corpus := &Corpus{
				Documents: suffixtree.SplitCorpus(result.Text, terminator, gstLogger),
				Kwip:      &result,
			}
			corpus.Types, corpus.Err = features.TypesFromUnits(result.Types, result.Units)
			out <- corpus
		}()
		return out
	}
}

// phraseDocuments strips the sentence end markers left by normalisation.
func phraseDocuments(text string) []string {
	var docs []string
	for _, phrase := range preprocess.Phrases(text) {
		doc := strings.TrimSpace(phrase)
		doc = strings.TrimSuffix(doc, string(suffixtree.DefaultTerminator))
		if doc == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// NewTreeBuilder inserts the corpus documents into a fresh generalised
// suffix tree.
func NewTreeBuilder(ctx context.Context, terminator rune, gstLogger zerolog.Logger) func(in <-chan *Corpus) <-chan *Corpus {
	return func(in <-chan *Corpus) <-chan *Corpus {
		out := make(chan *Corpus, 1)
		go func() {
			defer close(out)
			for corpus := range in {
				if corpus.Err == nil {
					corpus.Tree, corpus.Err = buildTree(ctx, corpus.Documents, terminator, gstLogger)
				}
				out <- corpus
			}
		}()
		return out
	}
}

func buildTree(ctx context.Context, docs []string, terminator rune, gstLogger zerolog.Logger) (tree *suffixtree.SuffixTree, err error) {
	defer utils.RecoverWithError(&err)
	size := 0
	for _, doc := range docs {
		size += len(doc) + 1
	}
	tree = suffixtree.New(
		suffixtree.WithTerminator(terminator),
		suffixtree.WithLogger(gstLogger),
		suffixtree.WithCapacity(size),
	)

	started := time.Now()
	if err := tree.BuildContext(ctx, docs); err != nil {
		return nil, fmt.Errorf("building suffix tree: %w", err)
	}
	elapsed := time.Since(started)
	metrics.ObserveBuild(elapsed, len(docs), tree.NodeCount())

	gstLogger.Info().
		Int("documents", len(docs)).
		Int("nodes", tree.NodeCount()).
		Int("leaves", tree.LeafCount()).
		Dur("elapsed", elapsed).
		Msg("Suffix tree built")
	return tree, nil
}
