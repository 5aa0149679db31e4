package pipeline

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/types"
	"text2phenotype.com/gst/utils"
)

// SuffixTree builds one pipeline running all cfgs over every request. Each
// configuration gets its own normalise, filter, corpus and tree stages.
func SuffixTree(cfgs []types.Configuration) (Pipeline, error) {
	gstLogger := logger.NewLogger("Suffix tree pipeline")
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no configurations to run")
	}
	terminators := make([]rune, len(cfgs))
	for i, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			gstLogger.Err(err).Str("config_name", cfg.Name).Msg("Invalid configuration")
			return nil, err
		}
		terminators[i], _ = cfg.Params.GST.TerminatorRune()
	}
	gstLogger.Info().
		Interface("configurations", cfgs).
		Msg("Starting suffix tree pipeline (see parameters in 'configurations' field)")

	splitter := NewTextChannelSplitter(len(cfgs))

	return func(request Request) <-chan string {
		responseChan := make(chan string, 1)
		pplnLog := gstLogger.With().Str("tid", request.Tid).Logger()
		pplnLog.Info().Msg("Started suffix tree pipeline")

		go func() {
			defer close(responseChan)
			ctx := context.Background()
			var in = make(chan string, 1)
			split := splitter(in)

			resultChannel := make(chan Result, len(cfgs))
			for i, cfg := range cfgs {
				cfgLog := pplnLog.With().Str("config_name", cfg.Name).Logger()
				params := cfg.Params.GST

				text := NewNormalizer(params.SkipNormalize)(split[i])
				text = NewPhraseFilter(params.FilterMin, params.FilterMax)(text)
				corpus := NewCorpusBuilder(terminators[i], cfg.Pipeline == types.KwipSuffixTreePipeline, cfgLog)(text)
				corpus = NewTreeBuilder(ctx, terminators[i], cfgLog)(corpus)
				res := NewTreeResult(ctx, cfg, cfgLog)(corpus, request)
				connect(res, resultChannel)
			}

			in <- request.Text
			close(in)
			response := make(map[string]interface{}, len(cfgs))

			for i := 0; i < len(cfgs); i++ {
				res := <-resultChannel
				pplnLog.Info().
					Str("config_name", res.ConfigName).
					Msg("Finished pipeline for configuration")
				response[res.ConfigName] = res.Data
			}

			buf, err := json.Marshal(response)
			if err != nil {
				pplnLog.Err(err).Caller().Msg("Failed to marshall response")
				return
			}
			pplnLog.Info().Msg("Finished suffix tree pipeline")
			responseChan <- string(buf)
		}()

		return responseChan
	}, nil
}

// ConfigurationsHash identifies the output of a pipeline built from cfgs.
func ConfigurationsHash(cfgs []types.Configuration) uint64 {
	items := make([]types.Hashable, len(cfgs))
	names := make([]string, len(cfgs))
	for i, cfg := range cfgs {
		items[i] = cfg
		names[i] = cfg.Name
	}
	code := make([]byte, 8)
	binary.LittleEndian.PutUint64(code, types.CombineHashes(items...))
	return utils.HashBytes([]byte(strings.Join(names, "\n")), code)
}

func connect(from <-chan Result, to chan<- Result) {
	go func() {
		for v := range from {
			to <- v
		}
	}()
}
