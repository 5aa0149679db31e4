package suffixtree

// DefaultTerminator closes every document appended to the tree.
const DefaultTerminator = '$'

// Text is the append-only character buffer shared by the whole corpus.
// Edge labels are ranges into it, so indices never move once written.
type Text struct {
	runes []rune
}

func NewText(capacity int) *Text {
	return &Text{runes: make([]rune, 0, capacity)}
}

// Append writes s to the end of the buffer and returns its [start, end) range.
func (text *Text) Append(s string) (int, int) {
	start := len(text.runes)
	for _, r := range s {
		text.runes = append(text.runes, r)
	}
	return start, len(text.runes)
}

func (text *Text) AppendRune(r rune) int {
	text.runes = append(text.runes, r)
	return len(text.runes) - 1
}

func (text *Text) At(i int) rune {
	return text.runes[i]
}

func (text *Text) Len() int {
	return len(text.runes)
}

func (text *Text) Slice(start int, end int) string {
	return string(text.runes[start:end])
}

// End is the open upper bound shared by every leaf edge created while one
// document is inserted. Moving it once extends all of those leaves.
type End struct {
	value  int
	frozen bool
}

func (end *End) Value() int {
	return end.value
}

func (end *End) Frozen() bool {
	return end.frozen
}

func (end *End) set(value int) {
	if end.frozen {
		panic("suffixtree: end marker is frozen")
	}
	end.value = value
}

func (end *End) freeze(value int) {
	end.set(value)
	end.frozen = true
}
