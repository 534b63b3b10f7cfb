// Package merkle builds audit paths over the per-block transaction merkle
// tree. Leaf hashes arrive from the peer node in block order; the tree
// hashes pairs with sha3-256 and duplicates the trailing node of odd
// levels.
package merkle

import (
	"bytes"

	"golang.org/x/crypto/sha3"

	"github.com/haasonsaas/chaingate/internal/errs"
)

// Position tells the verifier which side a sibling hash joins from.
type Position string

const (
	Left  Position = "left"
	Right Position = "right"
)

// Step is one sibling on the path from a leaf to the root.
type Step struct {
	Hash     []byte   `json:"hash"`
	Position Position `json:"position"`
}

// AuditPath returns the merkle path proving leaf's membership among
// hashes. The path is ordered leaf-level first.
func AuditPath(hashes [][]byte, leaf []byte) ([]Step, error) {
	index := -1
	for i, h := range hashes {
		if bytes.Equal(h, leaf) {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, errs.NotFound("hash not in merkle tree")
	}

	path := []Step{}
	level := make([][]byte, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		sibling := index ^ 1
		if sibling < index {
			path = append(path, Step{Hash: level[sibling], Position: Left})
		} else {
			path = append(path, Step{Hash: level[sibling], Position: Right})
		}

		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			joined := sha3.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next[i/2] = joined[:]
		}
		level = next
		index /= 2
	}
	return path, nil
}

// Root computes the tree root, or nil for an empty hash list.
func Root(hashes [][]byte) []byte {
	if len(hashes) == 0 {
		return nil
	}
	level := make([][]byte, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			joined := sha3.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next[i/2] = joined[:]
		}
		level = next
	}
	return level[0]
}
