package types

import (
	"encoding/binary"

	"text2phenotype.com/gst/utils"
)

type Hashable interface {
	GetHashCode() uint64
}

var _ Hashable = Configuration{}

// CombineHashes hashes the hash codes of items in order.
func CombineHashes(items ...Hashable) uint64 {
	buf := make([]byte, 8*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint64(buf[8*i:], item.GetHashCode())
	}
	return utils.HashBytes(buf)
}
