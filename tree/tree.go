// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package tree implements an ordered multi-root forest used to group and order
// rows for display.
//
// The forest is an arena: all nodes live in a single registry keyed by id and
// refer to each other by id only. A node is attached iff it is present in the
// registry. The synthetic root node "#" is always present and always open.
//
package tree

import (
	"github.com/pkg/errors"
)

// Root is the id of the synthetic root node.
//
const Root = "#"

// Errors returned by Forest methods.
var (
	ErrNotFound      = errors.New("node not found")
	ErrDuplicateID   = errors.New("duplicate node id")
	ErrOwnAncestor   = errors.New("node cannot be moved under itself")
	ErrCrossTreeMove = errors.New("destination parent does not belong to this tree")
	ErrNotEmpty      = errors.New("node has children")
	ErrRoot          = errors.New("operation not allowed on the root node")
)

// Traversal selects the nodes returned by Traverse.
//
type Traversal int

// Traversal modes.
const (
	// Shallow returns the direct children only.
	Shallow Traversal = iota
	// Preorder returns all descendants, parents before their children.
	Preorder
)

type node[T any] struct {
	parent   string
	children []string
	opened   bool
	data     T
}

// Forest is an ordered forest of nodes holding values of type T.
// The zero value is not usable, use New.
//
type Forest[T any] struct {
	nodes map[string]*node[T]
}

// New returns an empty forest holding only the root node.
//
func New[T any]() *Forest[T] {
	return &Forest[T]{
		nodes: map[string]*node[T]{
			Root: {opened: true},
		},
	}
}

func (f *Forest[T]) lookup(id string) (*node[T], error) {
	n := f.nodes[id]
	if n == nil {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}
	return n, nil
}

func parentID(id string) string {
	if id == "" {
		return Root
	}
	return id
}

func indexOf(s []string, id string) int {
	for i, c := range s {
		if c == id {
			return i
		}
	}
	return -1
}

func insertAt(s []string, pos int, id string) []string {
	if pos < 0 || pos > len(s) {
		pos = len(s)
	}
	s = append(s, "")
	copy(s[pos+1:], s[pos:])
	s[pos] = id
	return s
}

// Insert adds a new node with the given id under parent at position pos. An
// empty parent is the root. Negative or out of range positions append.
//
func (f *Forest[T]) Insert(id, parent string, pos int, data T) error {
	if _, ok := f.nodes[id]; ok {
		return errors.Wrapf(ErrDuplicateID, "%q", id)
	}
	parent = parentID(parent)
	p, err := f.lookup(parent)
	if err != nil {
		return err
	}
	f.nodes[id] = &node[T]{parent: parent, data: data}
	p.children = insertAt(p.children, pos, id)
	return nil
}

// Has returns true if id is attached to the forest.
//
func (f *Forest[T]) Has(id string) bool {
	_, ok := f.nodes[id]
	return ok
}

// Len returns the number of nodes in the forest, root included.
//
func (f *Forest[T]) Len() int { return len(f.nodes) }

// Get returns the data attached to node id.
//
func (f *Forest[T]) Get(id string) (T, bool) {
	n := f.nodes[id]
	if n == nil {
		var zero T
		return zero, false
	}
	return n.data, true
}

// Set replaces the data attached to node id.
//
func (f *Forest[T]) Set(id string, data T) error {
	n, err := f.lookup(id)
	if err != nil {
		return err
	}
	n.data = data
	return nil
}

// Parent returns the id of the parent of node id. The root has no parent.
//
func (f *Forest[T]) Parent(id string) (string, error) {
	if id == Root {
		return "", ErrRoot
	}
	n, err := f.lookup(id)
	if err != nil {
		return "", err
	}
	return n.parent, nil
}

// Children returns a copy of the ids of the direct children of node id.
//
func (f *Forest[T]) Children(id string) []string {
	n := f.nodes[parentID(id)]
	if n == nil {
		return nil
	}
	return append([]string(nil), n.children...)
}

// isAncestor returns true if a is b or one of b's ancestors.
func (f *Forest[T]) isAncestor(a, b string) bool {
	for id := b; id != ""; {
		if id == a {
			return true
		}
		n := f.nodes[id]
		if n == nil {
			return false
		}
		id = n.parent
	}
	return false
}

// Move detaches node id and re-inserts it at position pos under newParent
// (keeping its current parent if newParent is empty). Its subtree moves along.
// The position is interpreted after removal and is clamped to the number of
// siblings. On error, the forest is left untouched.
//
func (f *Forest[T]) Move(id string, pos int, newParent string) error {
	if id == Root {
		return ErrRoot
	}
	n, err := f.lookup(id)
	if err != nil {
		return err
	}
	if newParent == "" {
		newParent = n.parent
	}
	np := f.nodes[newParent]
	if np == nil {
		return errors.Wrapf(ErrCrossTreeMove, "%q", newParent)
	}
	if f.isAncestor(id, newParent) {
		return errors.Wrapf(ErrOwnAncestor, "move %q under %q", id, newParent)
	}
	op := f.nodes[n.parent]
	if i := indexOf(op.children, id); i >= 0 {
		op.children = append(op.children[:i], op.children[i+1:]...)
	}
	if pos < 0 || pos > len(np.children) {
		pos = len(np.children)
	}
	n.parent = newParent
	np.children = insertAt(np.children, pos, id)
	return nil
}

// Remove detaches node id. If recursive is true, its whole subtree is removed
// from the registry. Otherwise, removing a node with children fails with
// ErrNotEmpty.
//
func (f *Forest[T]) Remove(id string, recursive bool) error {
	if id == Root {
		return ErrRoot
	}
	n, err := f.lookup(id)
	if err != nil {
		return err
	}
	if len(n.children) > 0 && !recursive {
		return errors.Wrapf(ErrNotEmpty, "%q", id)
	}
	for _, c := range f.Traverse(id, Preorder, true) {
		delete(f.nodes, c)
	}
	p := f.nodes[n.parent]
	if i := indexOf(p.children, id); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	delete(f.nodes, id)
	return nil
}

// IsOpen reports whether node id is open. The root is always open.
//
func (f *Forest[T]) IsOpen(id string) bool {
	n := f.nodes[id]
	return n != nil && n.opened
}

// Open sets the open state of node id.
//
func (f *Forest[T]) Open(id string, open bool) error {
	if id == Root {
		return ErrRoot
	}
	n, err := f.lookup(id)
	if err != nil {
		return err
	}
	n.opened = open
	return nil
}

// Close is a shorthand for Open(id, false).
//
func (f *Forest[T]) Close(id string) error {
	return f.Open(id, false)
}

// OpenAll opens every node.
//
func (f *Forest[T]) OpenAll() {
	for id, n := range f.nodes {
		if id != Root {
			n.opened = true
		}
	}
}

// CloseAll closes every node but the root.
//
func (f *Forest[T]) CloseAll() {
	for id, n := range f.nodes {
		if id != Root {
			n.opened = false
		}
	}
}

// Traverse returns the ids of the descendants of node id (an empty id is the
// root), excluding id itself. With includeHidden false, the children of a
// closed node are skipped, but the closed node itself is returned.
//
func (f *Forest[T]) Traverse(id string, mode Traversal, includeHidden bool) []string {
	n := f.nodes[parentID(id)]
	if n == nil {
		return nil
	}
	var out []string
	f.walk(n, mode, includeHidden, &out)
	return out
}

func (f *Forest[T]) walk(n *node[T], mode Traversal, includeHidden bool, out *[]string) {
	for _, c := range n.children {
		*out = append(*out, c)
		if mode == Shallow {
			continue
		}
		cn := f.nodes[c]
		if includeHidden || cn.opened {
			f.walk(cn, mode, includeHidden, out)
		}
	}
}

// Visible returns the ids of the nodes reachable from the root through open
// nodes only, in display order.
//
func (f *Forest[T]) Visible() []string {
	return f.Traverse(Root, Preorder, false)
}
