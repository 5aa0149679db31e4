package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"text2phenotype.com/gst/export"
	"text2phenotype.com/gst/features"
	"text2phenotype.com/gst/metrics"
	"text2phenotype.com/gst/types"
	"text2phenotype.com/gst/utils"
)

// ConfigResult is what one configuration contributes to a response.
type ConfigResult struct {
	Documents int              `json:"documents"`
	Nodes     int              `json:"nodes"`
	Tree      json.RawMessage  `json:"tree,omitempty"`
	Dot       string           `json:"dot,omitempty"`
	Vectors   *features.Report `json:"vectors,omitempty"`
	Kwip      *KwipResult      `json:"kwip,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type KwipResult struct {
	Types []string `json:"types"`
	Units []int    `json:"units"`
	HTML  string   `json:"html"`
}

// NewTreeResult runs the configured exporters over a built corpus. The
// exporters only read the tree and run concurrently.
func NewTreeResult(ctx context.Context, cfg types.Configuration, gstLogger zerolog.Logger) func(in <-chan *Corpus, request Request) <-chan Result {
	return func(in <-chan *Corpus, request Request) <-chan Result {
		out := make(chan Result, 1)
		go func() {
			defer close(out)
			for corpus := range in {
				var response ConfigResult
				err := corpus.Err
				if err == nil {
					err = exportCorpus(ctx, cfg, corpus, request, &response)
				}
				if err != nil {
					gstLogger.Err(err).Str("config_name", cfg.Name).Msg("Configuration failed")
					response = ConfigResult{Error: err.Error()}
				}
				metrics.PipelineRun(cfg.Name, err)
				out <- Result{
					ConfigName: cfg.Name,
					Data:       response,
				}
			}
		}()
		return out
	}
}

func exportCorpus(ctx context.Context, cfg types.Configuration, corpus *Corpus, request Request, response *ConfigResult) (err error) {
	defer utils.RecoverWithError(&err)
	tree := corpus.Tree
	response.Documents = len(corpus.Documents)
	response.Nodes = tree.NodeCount()

	group, ctx := errgroup.WithContext(ctx)
	timed := func(feature string, export func() error) {
		if !cfg.CheckFeature(feature) {
			return
		}
		group.Go(func() (err error) {
			defer utils.RecoverWithError(&err)
			started := time.Now()
			defer func() { metrics.ObserveExport(feature, time.Since(started)) }()
			return export()
		})
	}

	timed(types.JSONFeature, func() error {
		doc, err := export.JSON(tree, len(corpus.Documents))
		if err != nil {
			return err
		}
		doc, err = export.WithMetadata(doc, map[string]interface{}{
			"tid":        request.Tid,
			"config":     cfg.Name,
			"terminator": string(tree.Terminator()),
		})
		if err != nil {
			return err
		}
		response.Tree = doc
		return nil
	})
	timed(types.DotFeature, func() error {
		var buf bytes.Buffer
		if err := export.Dot(tree, &buf); err != nil {
			return err
		}
		response.Dot = buf.String()
		return nil
	})
	timed(types.VectorsFeature, func() error {
		featureType, err := cfg.Params.GST.GetFeatureType()
		if err != nil {
			return err
		}
		featureCorpus, err := features.NewCorpus(tree, corpus.Types)
		if err != nil {
			return err
		}
		report, err := featureCorpus.Report(ctx, featureType)
		if err != nil {
			return err
		}
		response.Vectors = report
		return nil
	})
	timed(types.KwipFeature, func() error {
		if corpus.Kwip == nil {
			return nil
		}
		response.Kwip = &KwipResult{
			Types: corpus.Kwip.Types,
			Units: corpus.Kwip.Units,
			HTML:  corpus.Kwip.Pretty(),
		}
		return nil
	})
	return group.Wait()
}
