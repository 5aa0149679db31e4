package suffixtree

import "sync"

// Leaves returns the leaves reachable below id, a leaf yielding itself. The
// sets are aggregated once per tree: leaves are laid out in traversal order so
// every subtree owns a contiguous range of one shared slice.
// The returned slice must not be modified.
func (tree *SuffixTree) Leaves(id int) []int {
	tree.leavesOnce.Do(tree.aggregateLeaves)
	if id < 0 || id >= len(tree.leafRanges) {
		return nil
	}
	r := tree.leafRanges[id]
	return tree.leafOrder[r[0]:r[1]]
}

// LeafOccurrences collects the occurrences of every leaf below id.
func (tree *SuffixTree) LeafOccurrences(id int) []Position {
	var positions []Position
	for _, leaf := range tree.Leaves(id) {
		positions = append(positions, tree.nodes[leaf].Positions()...)
	}
	return positions
}

func (tree *SuffixTree) resetLeaves() {
	tree.leavesOnce = sync.Once{}
	tree.leafOrder = nil
	tree.leafRanges = nil
}

type aggregateFrame struct {
	id       int
	children []rune
	next     int
}

func (tree *SuffixTree) aggregateLeaves() {
	tree.leafRanges = make([][2]int, len(tree.nodes))
	tree.leafOrder = make([]int, 0, len(tree.nodes))

	root := tree.nodes[rootID]
	stack := []aggregateFrame{{id: rootID, children: root.EdgeBegins()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == 0 {
			tree.leafRanges[top.id][0] = len(tree.leafOrder)
			if tree.nodes[top.id].IsLeaf() {
				tree.leafOrder = append(tree.leafOrder, top.id)
			}
		}
		if top.next < len(top.children) {
			child := tree.nodes[top.id].children[top.children[top.next]]
			top.next++
			stack = append(stack, aggregateFrame{id: child, children: tree.nodes[child].EdgeBegins()})
			continue
		}
		tree.leafRanges[top.id][1] = len(tree.leafOrder)
		stack = stack[:len(stack)-1]
	}
}
