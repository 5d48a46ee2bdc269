// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree so a client can
// prove a transaction is part of a block.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Concatenation order of a proof hash relative to the running hash.
const (
	ProofFirst  int64 = 0 // The proof hash is the left input.
	ProofSecond int64 = 1 // The proof hash is the right input.
)

// ErrNotFound is returned when the value is not a leaf of the tree.
var ErrNotFound = errors.New("unable to find data in tree")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Hash() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   []byte
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree over the values.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. An odd number of leafs is padded by duplicating the last leaf.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	leafs := make([]*Node[T], 0, len(values)+1)
	for _, value := range values {
		hash, err := value.Hash()
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{Tree: t, Hash: hash, Value: value, leaf: true})
	}

	if len(leafs)%2 == 1 {
		last := leafs[len(leafs)-1]
		leafs = append(leafs, &Node[T]{Tree: t, Hash: last.Hash, Value: last.Value, leaf: true, dup: true})
	}

	root, err := t.buildIntermediate(leafs)
	if err != nil {
		return err
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. Starting from the hash of the
// value, each proof hash is concatenated first or second as directed by the
// order and the result hashed. The final hash matches the merkle root.
func (t *Tree[T]) Proof(value T) ([][]byte, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(value) {
			continue
		}

		var proof [][]byte
		var order []int64
		for parent := node.Parent; parent != nil; parent = parent.Parent {
			if parent.Left == node {
				proof = append(proof, parent.Right.Hash)
				order = append(order, ProofSecond)
			} else {
				proof = append(proof, parent.Left.Hash)
				order = append(order, ProofFirst)
			}
			node = parent
		}

		return proof, order, nil
	}

	return nil, nil, ErrNotFound
}

// Verify recalculates every level of the tree and checks the result
// matches the merkle root.
func (t *Tree[T]) Verify() error {
	calculated, err := t.Root.verify()
	if err != nil {
		return err
	}

	if !bytes.Equal(t.MerkleRoot, calculated) {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData recalculates the hashes on the path from the value to the root
// and checks each one against the tree.
func (t *Tree[T]) VerifyData(value T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(value) {
			continue
		}

		for parent := node.Parent; parent != nil; parent = parent.Parent {
			left, err := parent.Left.CalculateHash()
			if err != nil {
				return err
			}

			right, err := parent.Right.CalculateHash()
			if err != nil {
				return err
			}

			hash, err := t.sum(left, right)
			if err != nil {
				return err
			}

			if !bytes.Equal(hash, parent.Hash) {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}
		}

		if !bytes.Equal(t.Root.Hash, t.MerkleRoot) {
			return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
		}

		return nil
	}

	return ErrNotFound
}

// Values returns the values stored in the tree without the padding leaf.
func (t *Tree[T]) Values() []T {
	values := make([]T, 0, len(t.Leafs))
	for _, node := range t.Leafs {
		if !node.dup {
			values = append(values, node.Value)
		}
	}

	return values
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// sum hashes the concatenation of the two inputs with the tree's strategy.
func (t *Tree[T]) sum(left []byte, right []byte) ([]byte, error) {
	h := t.hashStrategy()

	data := make([]byte, 0, len(left)+len(right))
	data = append(data, left...)
	data = append(data, right...)

	if _, err := h.Write(data); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// buildIntermediate constructs the levels above the specified nodes and
// returns the root.
func (t *Tree[T]) buildIntermediate(nl []*Node[T]) (*Node[T], error) {
	var nodes []*Node[T]

	for i := 0; i < len(nl); i += 2 {
		left, right := nl[i], nl[i]
		if i+1 < len(nl) {
			right = nl[i+1]
		}

		hash, err := t.sum(left.Hash, right.Hash)
		if err != nil {
			return nil, err
		}

		n := Node[T]{
			Tree:  t,
			Left:  left,
			Right: right,
			Hash:  hash,
		}

		left.Parent = &n
		right.Parent = &n

		if len(nl) == 2 {
			return &n, nil
		}

		nodes = append(nodes, &n)
	}

	return t.buildIntermediate(nodes)
}

// =============================================================================

// Node represents a node, root, or leaf in the tree.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   []byte
	Value  T
	leaf   bool
	dup    bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	left, err := n.Left.verify()
	if err != nil {
		return nil, err
	}

	right, err := n.Right.verify()
	if err != nil {
		return nil, err
	}

	return n.Tree.sum(left, right)
}

// CalculateHash is a helper function that calculates the hash of the node.
func (n *Node[T]) CalculateHash() ([]byte, error) {
	if n.leaf {
		return n.Value.Hash()
	}

	return n.Tree.sum(n.Left.Hash, n.Right.Hash)
}

// =============================================================================

// VerifyProof folds the proof into the leaf hash with sha256 and reports
// whether the result matches the root.
func VerifyProof(leafHash []byte, proof [][]byte, order []int64, root []byte) bool {
	if len(proof) != len(order) {
		return false
	}

	hash := leafHash
	for i, p := range proof {
		var data []byte
		switch order[i] {
		case ProofFirst:
			data = append(append(data, p...), hash...)
		default:
			data = append(append(data, hash...), p...)
		}

		sum := sha256.Sum256(data)
		hash = sum[:]
	}

	return bytes.Equal(hash, root)
}
