package kwip

import (
	"html"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"text2phenotype.com/gst/logger"
)

// Posting records one occurrence of a term: the phrase it was found in and
// its token position there.
type Posting struct {
	Phrase   int `json:"phrase"`
	Position int `json:"position"`
}

// Index is an in-memory inverted index from analysed terms to the phrases
// they occur in.
type Index struct {
	terminator rune
	phrases    []string
	postings   map[string][]Posting
}

func NewIndex(terminator rune) *Index {
	return &Index{
		terminator: terminator,
		postings:   make(map[string][]Posting),
	}
}

// Build indexes every non-empty phrase.
func Build(phrases []string, terminator rune) *Index {
	index := NewIndex(terminator)
	for _, phrase := range phrases {
		index.Add(phrase)
	}
	return index
}

// Add indexes phrase, closing it with the terminator if needed. Blank phrases
// are skipped.
func (index *Index) Add(phrase string) {
	body := strings.TrimSuffix(phrase, string(index.terminator))
	if strings.TrimSpace(body) == "" {
		return
	}
	id := len(index.phrases)
	index.phrases = append(index.phrases, body+string(index.terminator))
	for _, token := range Analyze(body) {
		index.postings[token.Term] = append(index.postings[token.Term], Posting{Phrase: id, Position: token.Position})
	}
}

func (index *Index) PhraseCount() int {
	return len(index.phrases)
}

// Types returns the indexed terms in ascending order, leaving out terms that
// start with a digit.
func (index *Index) Types() []string {
	types := make([]string, 0, len(index.postings))
	for term := range index.postings {
		first, _ := utf8.DecodeRuneInString(term)
		if unicode.IsDigit(first) {
			continue
		}
		types = append(types, term)
	}
	sort.Strings(types)
	return types
}

// Contexts returns the phrase of every occurrence of term, in phrase order. A
// phrase holding term twice is returned twice.
func (index *Index) Contexts(term string) []string {
	postings := index.postings[term]
	contexts := make([]string, len(postings))
	for i, posting := range postings {
		contexts[i] = index.phrases[posting.Phrase]
	}
	return contexts
}

func (index *Index) Postings(term string) []Posting {
	return index.postings[term]
}

// Result is the keyword in phrase view of an index: the contexts of every type
// concatenated into one terminated corpus, and the unit list mapping corpus
// documents back to types.
type Result struct {
	Text  string   `json:"text"`
	Types []string `json:"types"`
	// Units[i] is the number of contexts of types 0..i, so type i owns the
	// documents Units[i-1] up to Units[i]-1.
	Units []int `json:"units"`

	contexts [][]string
}

func (index *Index) Result() Result {
	gstLogger := logger.NewLogger("KWIP")

	result := Result{Types: index.Types()}
	var sb strings.Builder
	units := 0
	for _, term := range result.Types {
		contexts := index.Contexts(term)
		for _, context := range contexts {
			sb.WriteString(context)
		}
		units += len(contexts)
		result.Units = append(result.Units, units)
		result.contexts = append(result.contexts, contexts)
	}
	result.Text = sb.String()

	gstLogger.Debug().
		Int("phrases", len(index.phrases)).
		Int("types", len(result.Types)).
		Int("units", units).
		Msg("Keyword in phrase result built")
	return result
}

// Pretty renders the result as an HTML page listing every context with its
// type highlighted.
func (result Result) Pretty() string {
	var sb strings.Builder
	sb.WriteString(`<HTML><HEAD><meta charset="utf-8"><TITLE> </TITLE></HEAD><BODY>`)
	for i, term := range result.Types {
		if i >= len(result.contexts) {
			break
		}
		for _, context := range result.contexts[i] {
			sb.WriteString(highlight(html.EscapeString(context), term))
			sb.WriteString("<br />")
		}
	}
	sb.WriteString("</BODY></HTML>")
	return sb.String()
}

func highlight(context string, term string) string {
	context = strings.ReplaceAll(context, term, "<b>"+term+"</b>")
	first, size := utf8.DecodeRuneInString(term)
	capitalized := string(unicode.ToUpper(first)) + term[size:]
	if capitalized != term {
		context = strings.ReplaceAll(context, capitalized, "<b>"+capitalized+"</b>")
	}
	return context
}
