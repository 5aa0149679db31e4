package suffixtree

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// AddDocument appends doc and a terminator to the corpus and extends the tree
// so that it holds every suffix of doc. It returns the id of the new document.
func (tree *SuffixTree) AddDocument(doc string) (int, error) {
	if strings.ContainsRune(doc, tree.terminator) {
		return 0, ErrTerminatorInDocument
	}
	tree.resetLeaves()

	start, _ := tree.text.Append(doc)
	end := tree.text.AppendRune(tree.terminator) + 1
	id := len(tree.docs)
	tree.docs = append(tree.docs, Span{Start: start, End: end})

	tree.extendDocument(id, start, end)
	return id, nil
}

// AddCorpus splits stream at terminators and adds each part as a document.
// Consecutive terminators yield empty documents. Text after the last
// terminator becomes the final document.
func (tree *SuffixTree) AddCorpus(stream string) error {
	return tree.BuildContext(context.Background(), SplitCorpus(stream, tree.terminator, tree.gstLogger))
}

// BuildContext adds docs in order. Cancellation is only observed between
// documents; a document that has started is always completed.
func (tree *SuffixTree) BuildContext(ctx context.Context, docs []string) error {
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := tree.AddDocument(doc); err != nil {
			return err
		}
	}
	return nil
}

func (tree *SuffixTree) extendDocument(doc int, start int, end int) {
	if tree.remainder != 0 {
		tree.fail("pending suffixes at document start", start)
	}
	node, edge, length, matched := tree.longestPath(start, end)

	docLogger := tree.gstLogger.With().Int("doc", doc).Int("matched", matched).Logger()
	switch {
	case matched == end-start:
		docLogger.Debug().Msg("Document repeats indexed content, adding occurrences only")
		tree.addRepeat(doc, start, end)
		tree.freeze(end)
		return
	case matched > 0:
		docLogger.Debug().Msg("Seeding active point from indexed prefix")
		tree.activeNode = node
		tree.activeEdge = edge
		tree.activeLength = length
		tree.remainder = matched
	default:
		tree.activeNode = rootID
		tree.activeLength = 0
	}
	for i := start + matched; i < end; i++ {
		tree.extend(doc, i)
	}
	tree.freeze(end)
}

// longestPath walks down from the root along text[start:end) without changing
// the tree. It returns the canonical active point at the end of the longest
// match and the number of characters matched.
func (tree *SuffixTree) longestPath(start int, end int) (node int, edge int, length int, matched int) {
	node = rootID
	for p := start; p < end; p++ {
		c := tree.text.At(p)
		var child int
		if length == 0 {
			next, ok := tree.nodes[node].children[c]
			if !ok {
				return
			}
			child = next
			edge = p
		} else {
			child = tree.nodes[node].children[tree.text.At(edge)]
			if tree.text.At(tree.nodes[child].start+length) != c {
				return
			}
		}
		length++
		matched++
		if length == tree.nodes[child].EdgeLength() {
			node = child
			length = 0
		}
	}
	return
}

// extend runs one Ukkonen phase for the character at position i.
func (tree *SuffixTree) extend(doc int, i int) {
	c := tree.text.At(i)
	tree.end.set(i + 1)
	tree.remainder++
	lastNew := noLink

	for tree.remainder > 0 {
		if tree.activeLength == 0 {
			tree.activeEdge = i
		}
		active := tree.nodes[tree.activeNode]
		edgeChar := tree.text.At(tree.activeEdge)
		next, ok := active.children[edgeChar]

		if !ok {
			if tree.activeLength > 0 {
				tree.fail("active edge has no child", i)
			}
			leaf := tree.newLeaf(tree.activeNode, i, doc, i-tree.remainder+1)
			active.children[c] = leaf
			if lastNew != noLink {
				tree.nodes[lastNew].link = tree.activeNode
				lastNew = noLink
			}
		} else {
			if tree.walkDown(next) {
				continue
			}
			nextNode := tree.nodes[next]
			at := nextNode.start + tree.activeLength
			if tree.text.At(at) == c {
				if lastNew != noLink {
					tree.nodes[lastNew].link = tree.activeNode
					lastNew = noLink
				}
				if c != tree.terminator {
					tree.activeLength++
					break
				}
				// the suffix already ends at an existing leaf
				if !nextNode.IsLeaf() || at != nextNode.End()-1 {
					tree.fail("terminator inside an internal edge", i)
				}
				nextNode.addOccurrence(doc, i-tree.remainder+1, tree.end)
			} else {
				split := tree.newInternal(tree.activeNode, nextNode.start, at)
				active.children[edgeChar] = split
				splitNode := tree.nodes[split]

				nextNode.start = at
				nextNode.parent = split
				splitNode.children[tree.text.At(at)] = next
				splitNode.children[c] = tree.newLeaf(split, i, doc, i-tree.remainder+1)

				if lastNew != noLink {
					tree.nodes[lastNew].link = split
				}
				lastNew = split
			}
		}

		tree.remainder--
		if tree.activeNode == rootID && tree.activeLength > 0 {
			tree.activeLength--
			tree.activeEdge = i - tree.remainder + 1
		} else if tree.activeNode != rootID {
			if link, ok := tree.nodes[tree.activeNode].SuffixLink(); ok {
				tree.activeNode = link
			} else {
				tree.activeNode = rootID
			}
		}
	}
}

// walkDown moves the active point onto next when the active length covers the
// whole edge, as required before comparing characters.
func (tree *SuffixTree) walkDown(next int) bool {
	edgeLength := tree.nodes[next].EdgeLength()
	if tree.activeLength < edgeLength {
		return false
	}
	tree.activeEdge += edgeLength
	tree.activeLength -= edgeLength
	tree.activeNode = next
	return true
}

// addRepeat records doc on the leaves of all its suffixes. Every one of them
// is already a leaf path, so no node is created.
func (tree *SuffixTree) addRepeat(doc int, start int, end int) {
	for j := start; j < end; j++ {
		leaf := tree.locate(j, end)
		tree.nodes[leaf].addOccurrence(doc, j, tree.end)
	}
}

// locate descends along text[from:to) with skip/count and returns the leaf the
// path ends on.
func (tree *SuffixTree) locate(from int, to int) int {
	id := rootID
	for p := from; p < to; {
		child, ok := tree.nodes[id].children[tree.text.At(p)]
		if !ok {
			tree.fail("repeated suffix is not a path", p)
		}
		p += tree.nodes[child].EdgeLength()
		id = child
	}
	node := tree.nodes[id]
	if !node.IsLeaf() || tree.PathLength(id) != to-from {
		tree.fail("repeated suffix does not end at a leaf", to)
	}
	return id
}

func (tree *SuffixTree) freeze(end int) {
	if tree.remainder != 0 {
		tree.fail("pending suffixes after terminator", end-1)
	}
	tree.end.freeze(end)
	tree.end = &End{}
	tree.activeNode = rootID
	tree.activeLength = 0
}

func (tree *SuffixTree) newLeaf(parent int, start int, doc int, suffixStart int) int {
	id := len(tree.nodes)
	leaf := newNode(id, parent, start, 0)
	leaf.openEnd = tree.end
	leaf.addOccurrence(doc, suffixStart, tree.end)
	tree.nodes = append(tree.nodes, leaf)
	return id
}

func (tree *SuffixTree) newInternal(parent int, start int, end int) int {
	id := len(tree.nodes)
	tree.nodes = append(tree.nodes, newNode(id, parent, start, end))
	return id
}

// SplitCorpus cuts a terminator-delimited stream into documents. A trailing
// fragment without terminator is kept as the last document.
func SplitCorpus(stream string, terminator rune, l zerolog.Logger) []string {
	if stream == "" {
		return nil
	}
	parts := strings.Split(stream, string(terminator))
	docs, last := parts[:len(parts)-1], parts[len(parts)-1]
	if last != "" {
		l.Warn().Int("length", len(last)).Msg("Corpus does not end with a terminator, closing the last document")
		docs = append(docs, last)
	}
	return docs
}
