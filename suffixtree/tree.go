package suffixtree

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"text2phenotype.com/gst/logger"
)

var ErrTerminatorInDocument = errors.New("suffixtree: document contains the terminator")

// Span is the [Start, End) buffer range of one document, terminator included.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// InvariantError reports a broken construction invariant. It is raised with
// panic, together with the active point at the moment of failure.
type InvariantError struct {
	Reason       string
	Offset       int
	ActiveNode   int
	ActiveEdge   int
	ActiveLength int
	Remainder    int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf(
		"suffixtree: %s (offset %d, active node %d, active edge %d, active length %d, remainder %d)",
		e.Reason, e.Offset, e.ActiveNode, e.ActiveEdge, e.ActiveLength, e.Remainder,
	)
}

// SuffixTree is a generalised suffix tree over terminator-delimited documents.
// Construction must be driven from a single goroutine; once it is finished the
// tree may be walked by any number of goroutines.
type SuffixTree struct {
	text       *Text
	terminator rune
	nodes      []*Node
	docs       []Span
	gstLogger  zerolog.Logger

	// active point, remainder and the live end marker
	activeNode   int
	activeEdge   int
	activeLength int
	remainder    int
	end          *End

	leavesOnce sync.Once
	leafOrder  []int
	leafRanges [][2]int
}

type Option func(tree *SuffixTree)

func WithTerminator(terminator rune) Option {
	return func(tree *SuffixTree) {
		tree.terminator = terminator
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(tree *SuffixTree) {
		tree.gstLogger = l
	}
}

// WithCapacity preallocates the text buffer for corpora of known size.
func WithCapacity(runes int) Option {
	return func(tree *SuffixTree) {
		tree.text = NewText(runes)
	}
}

func New(opts ...Option) *SuffixTree {
	tree := &SuffixTree{
		terminator: DefaultTerminator,
		gstLogger:  logger.NewLogger("Suffix tree"),
		end:        &End{},
	}
	for _, opt := range opts {
		opt(tree)
	}
	if tree.text == nil {
		tree.text = NewText(0)
	}
	tree.nodes = []*Node{newNode(rootID, -1, 0, 0)}
	return tree
}

func (tree *SuffixTree) Root() int {
	return rootID
}

func (tree *SuffixTree) Node(id int) *Node {
	if id < 0 || id >= len(tree.nodes) {
		return nil
	}
	return tree.nodes[id]
}

func (tree *SuffixTree) NodeCount() int {
	return len(tree.nodes)
}

func (tree *SuffixTree) LeafCount() int {
	count := 0
	for _, node := range tree.nodes {
		if node.IsLeaf() {
			count++
		}
	}
	return count
}

func (tree *SuffixTree) Terminator() rune {
	return tree.terminator
}

func (tree *SuffixTree) Text() *Text {
	return tree.text
}

// Documents returns the span of every document added so far, indexed by id.
func (tree *SuffixTree) Documents() []Span {
	return tree.docs
}

// Child returns the child of id reached over the edge starting with c.
func (tree *SuffixTree) Child(id int, c rune) (int, bool) {
	node := tree.Node(id)
	if node == nil {
		return 0, false
	}
	child, ok := node.children[c]
	return child, ok
}

// EdgeLabel materialises the label of the edge leading to id.
func (tree *SuffixTree) EdgeLabel(id int) string {
	node := tree.Node(id)
	if node == nil || node.IsRoot() {
		return ""
	}
	return tree.text.Slice(node.start, node.End())
}

// Occurrences returns the positions recorded on a leaf; internal nodes have none.
func (tree *SuffixTree) Occurrences(id int) []Position {
	node := tree.Node(id)
	if node == nil {
		return nil
	}
	return node.Positions()
}

// PathLength is the number of characters on the path from the root to id.
func (tree *SuffixTree) PathLength(id int) int {
	length := 0
	for node := tree.Node(id); node != nil && !node.IsRoot(); node = tree.Node(node.parent) {
		length += node.EdgeLength()
	}
	return length
}

// PathLabel materialises the whole root-to-node string of id.
func (tree *SuffixTree) PathLabel(id int) string {
	var chain []int
	for node := tree.Node(id); node != nil && !node.IsRoot(); node = tree.Node(node.parent) {
		chain = append(chain, node.id)
	}
	var sb strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		sb.WriteString(tree.EdgeLabel(chain[i]))
	}
	return sb.String()
}

// Find descends from the root along s. It returns the node whose incoming edge
// contains the end of s, and false when s is not a substring of the corpus.
func (tree *SuffixTree) Find(s string) (int, bool) {
	id := rootID
	offset := 0
	for _, r := range s {
		node := tree.nodes[id]
		if offset == node.EdgeLength() {
			child, ok := node.children[r]
			if !ok {
				return 0, false
			}
			id = child
			offset = 1
			continue
		}
		if tree.text.At(node.start+offset) != r {
			return 0, false
		}
		offset++
	}
	return id, true
}

func (tree *SuffixTree) fail(reason string, offset int) {
	err := &InvariantError{
		Reason:       reason,
		Offset:       offset,
		ActiveNode:   tree.activeNode,
		ActiveEdge:   tree.activeEdge,
		ActiveLength: tree.activeLength,
		Remainder:    tree.remainder,
	}
	tree.gstLogger.Error().
		Str("reason", reason).
		Int("offset", offset).
		Int("active_node", tree.activeNode).
		Int("active_edge", tree.activeEdge).
		Int("active_length", tree.activeLength).
		Int("remainder", tree.remainder).
		Int("node_count", len(tree.nodes)).
		Msg("Suffix tree invariant violated")
	panic(err)
}
