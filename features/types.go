package features

import (
	"errors"
	"fmt"
	"sync"
)

type FeatureType string

const (
	TF_IDF FeatureType = "TF_IDF"
	TF_DF  FeatureType = "TF_DF"
	BINARY FeatureType = "BINARY"
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

func ParseFeatureType(s string) (FeatureType, error) {
	switch FeatureType(s) {
	case TF_IDF, TF_DF, BINARY:
		return FeatureType(s), nil
	case "":
		return TF_IDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFeatureType, s)
}

// Type is a cluster candidate: a string (a keyword, or a whole document) and
// the documents of the corpus that belong to it.
type Type struct {
	ID     int    `json:"id"`
	String string `json:"string"`
	Units  []int  `json:"units"`

	mu      sync.Mutex
	vectors map[FeatureType][]float64
}

// TypesFromUnits turns a keyword in phrase unit list into types: type i owns
// the documents units[i-1] up to units[i]-1.
func TypesFromUnits(names []string, units []int) ([]*Type, error) {
	if len(names) != len(units) {
		return nil, fmt.Errorf("%d type names for %d units", len(names), len(units))
	}
	types := make([]*Type, len(names))
	from := 0
	for i, to := range units {
		if to < from {
			return nil, fmt.Errorf("unit list decreases at type %d (%d < %d)", i, to, from)
		}
		docs := make([]int, 0, to-from)
		for doc := from; doc < to; doc++ {
			docs = append(docs, doc)
		}
		types[i] = &Type{ID: i, String: names[i], Units: docs}
		from = to
	}
	return types, nil
}

// TypesFromDocuments makes every document its own type.
func TypesFromDocuments(docs []string) []*Type {
	types := make([]*Type, len(docs))
	for i, doc := range docs {
		types[i] = &Type{ID: i, String: doc, Units: []int{i}}
	}
	return types
}
