package suffixtree

import "sort"

const (
	rootID = 0
	noLink = -1
)

// Position is one occurrence of a leaf suffix: the document it belongs to and
// its [Start, End) range in the corpus buffer. End includes the terminator.
type Position struct {
	Doc   int `json:"doc"`
	Start int `json:"start"`
	End   int `json:"end"`
}

type occurrence struct {
	doc   int
	start int
	end   *End
}

func (occ occurrence) position() Position {
	return Position{Doc: occ.doc, Start: occ.start, End: occ.end.Value()}
}

// Node is a tree node together with the label of the edge leading to it.
// Relations to other nodes (children, parent, suffix link) are ids into the
// tree's node table.
type Node struct {
	id       int
	parent   int
	start    int
	end      int
	openEnd  *End
	link     int
	children map[rune]int

	occurrences []occurrence
}

func newNode(id int, parent int, start int, end int) *Node {
	return &Node{
		id:       id,
		parent:   parent,
		start:    start,
		end:      end,
		link:     noLink,
		children: make(map[rune]int),
	}
}

func (node *Node) ID() int {
	return node.id
}

// Parent returns the parent id, -1 for the root.
func (node *Node) Parent() int {
	return node.parent
}

func (node *Node) IsLeaf() bool {
	return node.openEnd != nil
}

func (node *Node) IsRoot() bool {
	return node.id == rootID
}

// Start is the buffer index of the first character of the incoming edge label.
func (node *Node) Start() int {
	return node.start
}

// End is the exclusive buffer index closing the incoming edge label.
func (node *Node) End() int {
	if node.openEnd != nil {
		return node.openEnd.Value()
	}
	return node.end
}

func (node *Node) EdgeLength() int {
	return node.End() - node.start
}

// SuffixLink reports the node representing this node's path minus its first
// character, if one was recorded during construction.
func (node *Node) SuffixLink() (int, bool) {
	return node.link, node.link != noLink
}

func (node *Node) ChildCount() int {
	return len(node.children)
}

// EdgeBegins returns the first characters of the outgoing edges in ascending order.
func (node *Node) EdgeBegins() []rune {
	begins := make([]rune, 0, len(node.children))
	for c := range node.children {
		begins = append(begins, c)
	}
	sort.Slice(begins, func(i, j int) bool { return begins[i] < begins[j] })
	return begins
}

// Positions lists the occurrences recorded on a leaf, in insertion order.
func (node *Node) Positions() []Position {
	positions := make([]Position, len(node.occurrences))
	for i, occ := range node.occurrences {
		positions[i] = occ.position()
	}
	return positions
}

func (node *Node) addOccurrence(doc int, start int, end *End) {
	node.occurrences = append(node.occurrences, occurrence{doc: doc, start: start, end: end})
}
