package features

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"text2phenotype.com/gst/logger"
	"text2phenotype.com/gst/suffixtree"
)

// Corpus holds, for every tree node, how often the substring it represents
// occurs in the documents of each type. Every node but the root is one vector
// dimension.
type Corpus struct {
	types []*Type
	index map[*Type]int
	// tf[node][type] is the number of suffix occurrences below node that
	// belong to a document of type
	tf []map[int]int
}

type frequencyListener struct {
	docTypes [][]int
	order    []int
	parents  []int
	tf       []map[int]int
}

func (l *frequencyListener) Process(node *suffixtree.Node, level int, stack []*suffixtree.Node) error {
	id := node.ID()
	l.order = append(l.order, id)
	l.parents[id] = node.Parent()
	if !node.IsLeaf() {
		return nil
	}
	for _, position := range node.Positions() {
		if position.Doc >= len(l.docTypes) {
			continue
		}
		for _, t := range l.docTypes[position.Doc] {
			l.tf[id][t]++
		}
	}
	return nil
}

// Finish folds leaf counts into their ancestors. Reverse pre-order visits
// every child before its parent.
func (l *frequencyListener) Finish() error {
	for i := len(l.order) - 1; i > 0; i-- {
		id := l.order[i]
		parent := l.tf[l.parents[id]]
		for t, n := range l.tf[id] {
			parent[t] += n
		}
	}
	return nil
}

// NewCorpus counts the term frequencies of types over tree. Documents that
// belong to no type are ignored.
func NewCorpus(tree *suffixtree.SuffixTree, types []*Type) (*Corpus, error) {
	gstLogger := logger.NewLogger("Feature corpus")

	docCount := len(tree.Documents())
	docTypes := make([][]int, docCount)
	index := make(map[*Type]int, len(types))
	for i, t := range types {
		index[t] = i
		for _, doc := range t.Units {
			if doc < 0 || doc >= docCount {
				return nil, fmt.Errorf("type %d refers to document %d, corpus has %d", t.ID, doc, docCount)
			}
			docTypes[doc] = append(docTypes[doc], i)
		}
	}

	listener := &frequencyListener{
		docTypes: docTypes,
		parents:  make([]int, tree.NodeCount()),
		tf:       make([]map[int]int, tree.NodeCount()),
	}
	for i := range listener.tf {
		listener.tf[i] = make(map[int]int)
	}
	if err := suffixtree.Walk(tree, tree.Root(), listener); err != nil {
		return nil, err
	}

	gstLogger.Debug().
		Int("types", len(types)).
		Int("dimensions", tree.NodeCount()-1).
		Msg("Feature corpus built")
	return &Corpus{types: types, index: index, tf: listener.tf}, nil
}

func (c *Corpus) Types() []*Type {
	return c.types
}

func (c *Corpus) Dimensions() int {
	return len(c.tf) - 1
}

// TermFrequency is the number of occurrences of node's substring in the
// documents of t.
func (c *Corpus) TermFrequency(t *Type, node int) int {
	i, ok := c.index[t]
	if !ok || node < 0 || node >= len(c.tf) {
		return 0
	}
	return c.tf[node][i]
}

// DocumentFrequency is the number of types in which node's substring occurs.
func (c *Corpus) DocumentFrequency(node int) int {
	if node < 0 || node >= len(c.tf) {
		return 0
	}
	return len(c.tf[node])
}

// Vector returns the feature vector of t. It is computed on first use and
// cached on the type.
func (c *Corpus) Vector(t *Type, featureType FeatureType) ([]float64, error) {
	i, ok := c.index[t]
	if !ok {
		return nil, fmt.Errorf("type %d is not part of the corpus", t.ID)
	}
	switch featureType {
	case TF_IDF, TF_DF, BINARY:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeatureType, featureType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if vector, ok := t.vectors[featureType]; ok {
		return vector, nil
	}

	n := float64(len(c.types))
	vector := make([]float64, c.Dimensions())
	for node := 1; node < len(c.tf); node++ {
		tf, ok := c.tf[node][i]
		if !ok || tf == 0 {
			continue
		}
		df := float64(len(c.tf[node]))
		switch featureType {
		case TF_IDF:
			vector[node-1] = float64(tf) * math.Log(n/df)
		case TF_DF:
			vector[node-1] = float64(tf) * df
		case BINARY:
			vector[node-1] = 1
		}
	}

	if t.vectors == nil {
		t.vectors = make(map[FeatureType][]float64)
	}
	t.vectors[featureType] = vector
	return vector, nil
}

// Cosine is the cosine similarity of a and b, 0 when either is the zero vector.
func Cosine(a []float64, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector lengths differ: %d and %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Similarities computes the vectors of all types concurrently and returns the
// symmetric matrix of their pairwise cosine similarities.
func (c *Corpus) Similarities(ctx context.Context, featureType FeatureType) ([][]float64, error) {
	vectors := make([][]float64, len(c.types))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range c.types {
		i, t := i, t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vector, err := c.Vector(t, featureType)
			if err != nil {
				return err
			}
			vectors[i] = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matrix := make([][]float64, len(vectors))
	for i := range matrix {
		matrix[i] = make([]float64, len(vectors))
	}
	for i := range vectors {
		for j := i; j < len(vectors); j++ {
			similarity, err := Cosine(vectors[i], vectors[j])
			if err != nil {
				return nil, err
			}
			matrix[i][j] = similarity
			matrix[j][i] = similarity
		}
	}
	return matrix, nil
}

// TypeVector is the exported form of one type and its feature vector.
type TypeVector struct {
	ID     int       `json:"id"`
	String string    `json:"string"`
	Units  []int     `json:"units"`
	Vector []float64 `json:"vector"`
}

// Report is the exported feature view of a corpus.
type Report struct {
	FeatureType  FeatureType  `json:"featureType"`
	Dimensions   int          `json:"dimensions"`
	Types        []TypeVector `json:"types"`
	Similarities [][]float64  `json:"similarities"`
}

func (c *Corpus) Report(ctx context.Context, featureType FeatureType) (*Report, error) {
	similarities, err := c.Similarities(ctx, featureType)
	if err != nil {
		return nil, err
	}
	report := &Report{
		FeatureType:  featureType,
		Dimensions:   c.Dimensions(),
		Types:        make([]TypeVector, len(c.types)),
		Similarities: similarities,
	}
	for i, t := range c.types {
		vector, err := c.Vector(t, featureType)
		if err != nil {
			return nil, err
		}
		report.Types[i] = TypeVector{ID: t.ID, String: t.String, Units: t.Units, Vector: vector}
	}
	return report, nil
}
