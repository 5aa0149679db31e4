package export

import (
	"fmt"
	"io"
	"strconv"

	"text2phenotype.com/gst/suffixtree"
)

// DotListener writes the walked tree as a Graphviz digraph. Suffix links are
// drawn dotted. A failed write aborts the walk.
type DotListener struct {
	tree   *suffixtree.SuffixTree
	w      io.Writer
	opened bool
}

func NewDotListener(tree *suffixtree.SuffixTree, w io.Writer) *DotListener {
	return &DotListener{tree: tree, w: w}
}

func (l *DotListener) Process(node *suffixtree.Node, level int, stack []*suffixtree.Node) error {
	if !l.opened {
		if _, err := fmt.Fprintln(l.w, "digraph suffixtree {"); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(l.w, "\tnode [shape=circle, label=\"\", width=0.1];"); err != nil {
			return err
		}
		l.opened = true
	}

	id := node.ID()
	if node.IsLeaf() {
		if _, err := fmt.Fprintf(l.w, "\tn%d [shape=box, label=%s];\n", id, dotLabel(node)); err != nil {
			return err
		}
	}
	if level > 0 {
		if _, err := fmt.Fprintf(l.w, "\tn%d -> n%d [label=%s];\n", node.Parent(), id, strconv.Quote(l.tree.EdgeLabel(id))); err != nil {
			return err
		}
	}
	if link, ok := node.SuffixLink(); ok && !node.IsLeaf() && !node.IsRoot() {
		if _, err := fmt.Fprintf(l.w, "\tn%d -> n%d [style=dotted];\n", id, link); err != nil {
			return err
		}
	}
	return nil
}

func (l *DotListener) Finish() error {
	if !l.opened {
		return nil
	}
	_, err := fmt.Fprintln(l.w, "}")
	return err
}

func dotLabel(node *suffixtree.Node) string {
	label := ""
	for i, position := range node.Positions() {
		if i > 0 {
			label += " "
		}
		label += fmt.Sprintf("%d:%d", position.Doc, position.Start)
	}
	return strconv.Quote(label)
}

// Dot writes the whole tree to w.
func Dot(tree *suffixtree.SuffixTree, w io.Writer) error {
	return suffixtree.Walk(tree, tree.Root(), NewDotListener(tree, w))
}
