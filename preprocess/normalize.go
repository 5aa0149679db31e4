package preprocess

import (
	"regexp"

	"text2phenotype.com/gst/logger"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

func newRule(pattern string, replacement string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replacement: replacement}
}

// Placeholders protect dots, colons and commas that do not end a phrase while
// the sentence end rule runs.
const (
	dotPlaceholder   = "&"
	colonPlaceholder = "|"
	commaPlaceholder = "#"
)

var normalizeRules = []rule{
	// leading line numbers
	newRule(`\n[0-9]+`, ""),
	// decimal comma: 19,3
	newRule(`([0-9]),([0-9])`, "${1}"+commaPlaceholder+"${2}"),
	// commas, quotation marks and the corpus terminator become blanks
	newRule(`[,"«»$]`, " "),
	newRule(`\s+`, " "),
	// parenthesised text
	newRule(`\([^)]*\)`, " "),
	newRule(` +`, " "),
	// dates: 29.10. and ordinal days 3.
	newRule(`([1-2][0-9]|3[0-1]|[1-9])\.([1-9]|1[0-2])\.`, "${1}"+dotPlaceholder+"${2}"+dotPlaceholder),
	newRule(`([1-2][0-9]|3[0-1]|[1-9])\.`, "${1}"+dotPlaceholder),
	// abbreviations: bzw. ca. Dr. usw.
	newRule(`\b(a|al|B|bzw|ca|Chr|Dr|Fr|Hrg|Hrsg|I|i|Mill|Mio|Mr|Mrd|Nr|O|phil|Prof|s|S|St|u|usf|usw|v|V|z)\.`, "${1}"+dotPlaceholder),
	// digit groups: 100'000 and 100 000
	newRule(`([0-9]+)'([0-9]+)`, "${1}${2}"),
	newRule(`([0-9]+) ([0-9]+)`, "${1}${2}"),
	// scores: 2:0
	newRule(`([0-9]):([0-9])`, "${1}"+colonPlaceholder+"${2}"),
	// thousands separator: 10.000
	newRule(`([0-9])\.([0-9])`, "${1}${2}"),
	// every phrase end closes a document
	newRule(`[ ]*[.;!?:]\s*`, "$$\n"),
	newRule(regexp.QuoteMeta(dotPlaceholder), "."),
	newRule(regexp.QuoteMeta(colonPlaceholder), ":"),
	newRule(regexp.QuoteMeta(commaPlaceholder), ","),
}

// Normalize rewrites running text into one phrase per line, each phrase closed
// by the '$' terminator. Punctuation that does not end a phrase (dates, common
// abbreviations, numbers) is preserved.
func Normalize(text string) string {
	gstLogger := logger.NewLogger("Preprocess")
	gstLogger.Info().Int("length", len(text)).Msg("Normalizing text")

	for _, r := range normalizeRules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}

	gstLogger.Debug().Int("length", len(text)).Msg("Text normalized")
	return text
}
