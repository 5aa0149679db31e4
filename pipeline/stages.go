package pipeline

import (
	"strings"

	"text2phenotype.com/gst/preprocess"
)

// NewNormalizer joins the incoming text chunks and normalises them into one
// phrase per line. With skip set the text is passed on unchanged.
func NewNormalizer(skip bool) func(in <-chan string) <-chan string {
	return func(in <-chan string) <-chan string {
		out := make(chan string, 1)
		go func() {
			defer close(out)
			var sb strings.Builder
			for text := range in {
				sb.WriteString(text)
			}
			if skip {
				out <- sb.String()
				return
			}
			out <- preprocess.Normalize(sb.String())
		}()
		return out
	}
}

// NewPhraseFilter drops the phrases whose word count lies outside [min, max].
func NewPhraseFilter(min int, max int) func(in <-chan string) <-chan string {
	return func(in <-chan string) <-chan string {
		out := make(chan string, 1)
		go func() {
			defer close(out)
			for text := range in {
				out <- preprocess.Filter(text, min, max)
			}
		}()
		return out
	}
}
