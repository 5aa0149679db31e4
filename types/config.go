package types

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"text2phenotype.com/gst/features"
	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/suffixtree"
	"text2phenotype.com/gst/utils"
)

const (
	// pipeline type
	SuffixTreePipeline     = "suffix_tree"
	KwipSuffixTreePipeline = "kwip_suffix_tree"

	// features
	JSONFeature    = "json"
	DotFeature     = "dot"
	VectorsFeature = "vectors"
	KwipFeature    = "kwip"
)

var (
	ErrWrongPipeline = errors.New("wrong pipeline type")
	ErrWrongFeature  = errors.New("unknown feature")
)

type TreeParams struct {
	Terminator    string `yaml:"terminator" json:"terminator"`
	SkipNormalize bool   `yaml:"skip_normalize" json:"skip_normalize"`
	FilterMin     int    `yaml:"filter_min" json:"filter_min"`
	FilterMax     int    `yaml:"filter_max" json:"filter_max"`
	FeatureType   string `yaml:"feature_type" json:"feature_type"`
}

// TerminatorRune is the configured terminator, '$' when none is set.
func (params TreeParams) TerminatorRune() (rune, error) {
	if params.Terminator == "" {
		return suffixtree.DefaultTerminator, nil
	}
	if utf8.RuneCountInString(params.Terminator) != 1 {
		return 0, fmt.Errorf("terminator %q is not a single character", params.Terminator)
	}
	r, _ := utf8.DecodeRuneInString(params.Terminator)
	return r, nil
}

func (params TreeParams) GetFeatureType() (features.FeatureType, error) {
	return features.ParseFeatureType(params.FeatureType)
}

type ParamsConfig struct {
	GST TreeParams `yaml:"GST" json:"gst"`
}

type Configuration struct {
	Name     string       `json:"name"`
	FilePath string       `json:"file_path"`
	Params   ParamsConfig `yaml:"params" json:"params"`
	Pipeline string       `yaml:"pipeline" json:"pipeline"`
	Features []string     `yaml:"features" json:"features"`
}

func (cfg Configuration) CheckFeature(featureName string) bool {
	for _, feat := range cfg.Features {
		if feat == featureName {
			return true
		}
	}

	return false
}

// Validate checks everything that would otherwise fail in the middle of a
// pipeline run.
func (cfg Configuration) Validate() error {
	if cfg.Pipeline != SuffixTreePipeline && cfg.Pipeline != KwipSuffixTreePipeline {
		return fmt.Errorf("%w: %q", ErrWrongPipeline, cfg.Pipeline)
	}
	for _, feat := range cfg.Features {
		switch feat {
		case JSONFeature, DotFeature, VectorsFeature:
		case KwipFeature:
			if cfg.Pipeline != KwipSuffixTreePipeline {
				return fmt.Errorf("%w: %q needs pipeline %q", ErrWrongFeature, feat, KwipSuffixTreePipeline)
			}
		default:
			return fmt.Errorf("%w: %q", ErrWrongFeature, feat)
		}
	}
	params := cfg.Params.GST
	if _, err := params.TerminatorRune(); err != nil {
		return err
	}
	if _, err := params.GetFeatureType(); err != nil {
		return err
	}
	if params.FilterMin < 0 || params.FilterMax < params.FilterMin {
		return fmt.Errorf("phrase filter [%d, %d] is empty", params.FilterMin, params.FilterMax)
	}
	return nil
}

// GetHashCode identifies the output a configuration produces; two
// configurations with the same hash yield the same result for a corpus.
func (cfg Configuration) GetHashCode() uint64 {
	names := append([]string(nil), cfg.Features...)
	sort.Strings(names)
	params := cfg.Params.GST
	return utils.HashString(strings.Join([]string{
		cfg.Pipeline,
		params.Terminator,
		fmt.Sprint(params.SkipNormalize, params.FilterMin, params.FilterMax),
		strings.ToUpper(params.FeatureType),
		strings.Join(names, ","),
	}, "|"))
}

func ParseConfiguration(name string, buf []byte) (Configuration, error) {
	cfg := Configuration{Name: name}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration %s: %w", name, err)
	}
	return cfg, nil
}

// LoadConfigurations reads every *.yaml file of dirPath. Invalid files are
// logged and skipped. The result is sorted by name.
func LoadConfigurations(dirPath string) ([]Configuration, error) {
	gstLogger := logger.NewLogger("LoadConfigurations")

	files, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	configChan := make(chan Configuration, len(files))
	for _, f := range files {
		// Skip dirs and non-yaml files
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		wg.Add(1)
		go func(file os.DirEntry) {
			defer wg.Done()
			filePath := path.Join(dirPath, file.Name())
			buf, err := os.ReadFile(filePath)
			if err != nil {
				gstLogger.Error().Err(err).Str("file", filePath).Msg("Could not read configuration")
				return
			}
			cfg, err := ParseConfiguration(strings.TrimSuffix(file.Name(), ".yaml"), buf)
			if err != nil {
				gstLogger.Error().Err(err).Str("file", filePath).Msg("Skipping configuration")
				return
			}
			cfg.FilePath = filePath
			configChan <- cfg
		}(f)
	}

	go func() {
		wg.Wait()
		close(configChan)
	}()

	configs := make([]Configuration, 0, len(configChan))
	for cfg := range configChan {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

// DefaultConfiguration is used when no configuration directory is given.
func DefaultConfiguration() Configuration {
	return Configuration{
		Name:     "default",
		Pipeline: SuffixTreePipeline,
		Features: []string{JSONFeature},
	}
}
