package kwip

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var phrases = []string{
	"Petra liest das Buch$",
	"Maria liest das Buch$",
	"The book is on the table$",
	"",
	"2 Bücher und 3 Bücher$",
}

func TestAnalyze(t *testing.T) {
	tokens := Analyze("The book is on the Table, 42 times")
	expected := []Token{
		{Term: "book", Position: 1},
		{Term: "table", Position: 5},
		{Term: "42", Position: 6},
		{Term: "times", Position: 7},
	}
	if diff := cmp.Diff(expected, tokens); diff != "" {
		t.Errorf("Analyze mismatch (-expected +actual):\n%s", diff)
	}
	assert.Empty(t, Analyze(" $ , "))
}

func TestIndex(t *testing.T) {
	index := Build(phrases, '$')
	require.Equal(t, 4, index.PhraseCount())

	assert.Equal(t, []string{
		"book", "buch", "bücher", "das", "liest", "maria", "petra", "table", "und",
	}, index.Types())

	assert.Equal(t, []string{"Petra liest das Buch$", "Maria liest das Buch$"}, index.Contexts("liest"))
	assert.Equal(t, []string{"2 Bücher und 3 Bücher$", "2 Bücher und 3 Bücher$"}, index.Contexts("bücher"))
	assert.Empty(t, index.Contexts("missing"))
	assert.Equal(t, []Posting{{Phrase: 3, Position: 1}, {Phrase: 3, Position: 4}}, index.Postings("bücher"))
}

func TestAddClosesPhrases(t *testing.T) {
	index := NewIndex('#')
	index.Add("alpha beta")
	index.Add("gamma#")
	index.Add("  #")
	assert.Equal(t, 2, index.PhraseCount())
	assert.Equal(t, []string{"alpha beta#"}, index.Contexts("alpha"))
	assert.Equal(t, []string{"gamma#"}, index.Contexts("gamma"))
}

func TestResult(t *testing.T) {
	index := Build([]string{"aa bb$", "bb cc$"}, '$')
	result := index.Result()

	assert.Equal(t, []string{"aa", "bb", "cc"}, result.Types)
	assert.Equal(t, []int{1, 3, 4}, result.Units)
	assert.Equal(t, "aa bb$aa bb$bb cc$bb cc$", result.Text)
}

func TestPretty(t *testing.T) {
	index := Build([]string{"Buch und buch$", "<x> buch$"}, '$')
	pretty := index.Result().Pretty()

	assert.Contains(t, pretty, "<b>Buch</b> und <b>buch</b>$<br />")
	assert.Contains(t, pretty, "&lt;x&gt; <b>buch</b>$<br />")
	assert.Contains(t, pretty, "<b>und</b>")
	assert.True(t, len(pretty) > 0)
}
