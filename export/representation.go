package export

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch"

	"text2phenotype.com/gst/suffixtree"
)

// NodeRepresentation is the exported view of one tree node.
type NodeRepresentation struct {
	Number     int    `json:"number"`
	Parent     int    `json:"parent"`
	Level      int    `json:"level"`
	Label      string `json:"label"`
	PathLength int    `json:"pathLength"`
	// first characters of the outgoing edges, ascending
	EdgeBegins  []string              `json:"edgeBegins"`
	Leaves      []int                 `json:"leaves"`
	Occurrences []suffixtree.Position `json:"occurrences,omitempty"`
}

type Representation struct {
	UnitCount int                  `json:"unitCount"`
	NodeCount int                  `json:"nodeCount"`
	Nodes     []NodeRepresentation `json:"nodes"`
}

// RepresentationListener collects a Representation while walking a tree. Use
// it through suffixtree.WithLeaves.
type RepresentationListener struct {
	tree           *suffixtree.SuffixTree
	representation *Representation
}

func NewRepresentationListener(tree *suffixtree.SuffixTree, representation *Representation) *RepresentationListener {
	return &RepresentationListener{tree: tree, representation: representation}
}

func (l *RepresentationListener) ProcessResult(node *suffixtree.Node, level int, stack []*suffixtree.Node, leaves []int) error {
	docs := l.tree.Documents()
	begins := node.EdgeBegins()
	edgeBegins := make([]string, len(begins))
	for i, c := range begins {
		edgeBegins[i] = string(c)
	}

	nodeRepresentation := NodeRepresentation{
		Number:     node.ID(),
		Parent:     node.Parent(),
		Level:      level,
		Label:      l.tree.EdgeLabel(node.ID()),
		PathLength: l.tree.PathLength(node.ID()),
		EdgeBegins: edgeBegins,
		Leaves:     append([]int(nil), leaves...),
	}
	if !node.IsLeaf() && !node.IsRoot() && node.ChildCount() < 2 {
		return fmt.Errorf("internal node %d has %d children", node.ID(), node.ChildCount())
	}
	if node.IsLeaf() {
		nodeRepresentation.Occurrences = node.Positions()
		for _, position := range nodeRepresentation.Occurrences {
			if position.Doc < 0 || position.Doc >= len(docs) {
				return fmt.Errorf("occurrence %v of node %d names an unknown document", position, node.ID())
			}
			span := docs[position.Doc]
			if position.Start < span.Start || position.End != span.End || position.Start >= position.End {
				return fmt.Errorf("occurrence %v of node %d outside document span %v", position, node.ID(), span)
			}
		}
	}
	l.representation.Nodes = append(l.representation.Nodes, nodeRepresentation)
	return nil
}

func (l *RepresentationListener) Finish() error {
	l.representation.NodeCount = len(l.representation.Nodes)
	return nil
}

// Build walks the whole tree into a Representation.
func Build(tree *suffixtree.SuffixTree, units int) (*Representation, error) {
	representation := &Representation{UnitCount: units}
	listener := NewRepresentationListener(tree, representation)
	if err := suffixtree.Walk(tree, tree.Root(), suffixtree.WithLeaves(tree, listener)); err != nil {
		return nil, err
	}
	return representation, nil
}

// JSON exports the whole tree as indented JSON.
func JSON(tree *suffixtree.SuffixTree, units int) ([]byte, error) {
	representation, err := Build(tree, units)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(representation, "", "  ")
}

// WithMetadata merges meta into the JSON document doc. Keys of meta replace
// those of doc; a nil value removes the key.
func WithMetadata(doc []byte, meta map[string]interface{}) ([]byte, error) {
	patch, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, fmt.Errorf("merging metadata: %w", err)
	}
	return merged, nil
}
