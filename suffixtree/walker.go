package suffixtree

import "fmt"

// Listener receives every node of a walk in pre-order. level is the depth of
// node below the walk's root and stack holds its ancestors, root first, so
// len(stack) == level. stack is reused by the walker and must not be retained.
type Listener interface {
	Process(node *Node, level int, stack []*Node) error
}

type ListenerFunc func(node *Node, level int, stack []*Node) error

func (f ListenerFunc) Process(node *Node, level int, stack []*Node) error {
	return f(node, level, stack)
}

// Finisher is implemented by listeners that need a hook once the walk is done.
type Finisher interface {
	Finish() error
}

type walkFrame struct {
	node     *Node
	children []rune
	next     int
}

// Walk visits every node below root exactly once, depth first, children in
// ascending order of their first edge character. A listener error aborts the
// walk. Walk never modifies the tree.
func Walk(tree *SuffixTree, root int, listener Listener) error {
	start := tree.Node(root)
	if start == nil {
		return fmt.Errorf("suffixtree: no node with id %d", root)
	}
	var ancestors []*Node
	var frames []walkFrame

	visit := func(node *Node) error {
		if err := listener.Process(node, len(ancestors), ancestors); err != nil {
			return fmt.Errorf("walk aborted at node %d: %w", node.id, err)
		}
		frames = append(frames, walkFrame{node: node, children: node.EdgeBegins()})
		ancestors = append(ancestors, node)
		return nil
	}

	if err := visit(start); err != nil {
		return err
	}
	for len(frames) > 0 {
		top := &frames[len(frames)-1]
		if top.next < len(top.children) {
			child := tree.nodes[top.node.children[top.children[top.next]]]
			top.next++
			if err := visit(child); err != nil {
				return err
			}
			continue
		}
		frames = frames[:len(frames)-1]
		ancestors = ancestors[:len(ancestors)-1]
	}

	if finisher, ok := listener.(Finisher); ok {
		if err := finisher.Finish(); err != nil {
			return fmt.Errorf("finishing walk: %w", err)
		}
	}
	return nil
}

// ResultListener is a listener that also receives the leaves aggregated below
// each node (see SuffixTree.Leaves).
type ResultListener interface {
	ProcessResult(node *Node, level int, stack []*Node, leaves []int) error
}

type resultAdapter struct {
	tree     *SuffixTree
	listener ResultListener
}

// WithLeaves adapts l so it can be passed to Walk over tree.
func WithLeaves(tree *SuffixTree, l ResultListener) Listener {
	return &resultAdapter{tree: tree, listener: l}
}

func (a *resultAdapter) Process(node *Node, level int, stack []*Node) error {
	return a.listener.ProcessResult(node, level, stack, a.tree.Leaves(node.id))
}

func (a *resultAdapter) Finish() error {
	if finisher, ok := a.listener.(Finisher); ok {
		return finisher.Finish()
	}
	return nil
}
