// SPDX-License-Identifier: Apache-2.0

// Package hdtfake is an in-memory implementation of api.HDTCursor used
// by scanner/binder tests and by dmctl's demo mode -- no real hardware
// description tree exists in this environment. Grounded on the
// teacher's device/api/mockDeviceReceiver.go: a hand-written mock
// implementing a narrow interface purely for test use, never part of
// the production bind/probe path.
package hdtfake

import (
	"bytes"

	"github.com/flashboot/dm/api"
)

// node is one in-memory HDT node.
type node struct {
	name       string
	enabled    bool
	preReloc   bool
	compatible []string
	children   []*node
}

// Tree is a builder/holder for an in-memory HDT, along with a flat
// path index for api.HDTCursor.Path.
type Tree struct {
	root  *node
	paths map[string]*node
}

// NewTree returns an empty tree with just a root node.
func NewTree() *Tree {
	root := &node{name: "/", enabled: true}
	return &Tree{root: root, paths: map[string]*node{"/": root}}
}

// AddChild appends a new enabled child under parent (nil means root)
// and returns it for further configuration.
func (t *Tree) AddChild(parent *node, name string) *node {
	if parent == nil {
		parent = t.root
	}
	n := &node{name: name, enabled: true}
	parent.children = append(parent.children, n)
	return n
}

// Root returns the tree's root node, for use with AddChild/AddPath.
func (t *Tree) Root() *node { return t.root }

// AddPath registers an additional well-known root (e.g. "/chosen") not
// reachable from Root's own children, mirroring spec.md §4.6's
// extended-scan auxiliary paths.
func (t *Tree) AddPath(path string) *node {
	n := &node{name: path, enabled: true}
	t.paths[path] = n
	return n
}

func (n *node) SetEnabled(v bool) *node    { n.enabled = v; return n }
func (n *node) SetPreReloc(v bool) *node   { n.preReloc = v; return n }
func (n *node) SetCompatible(c ...string) *node {
	n.compatible = c
	return n
}

// The methods below implement api.HDTCursor over t.

func (t *Tree) RootNode() api.Node { return t.root }

func (t *Tree) FirstSubnode(n api.Node) api.Node {
	nd, ok := n.(*node)
	if !ok || len(nd.children) == 0 {
		return nil
	}
	return nd.children[0]
}

func (t *Tree) NextSubnode(n api.Node) api.Node {
	nd, ok := n.(*node)
	if !ok {
		return nil
	}
	parent := t.parentOf(nd)
	if parent == nil {
		return nil
	}
	for i, c := range parent.children {
		if c == nd {
			if i+1 < len(parent.children) {
				return parent.children[i+1]
			}
			return nil
		}
	}
	return nil
}

func (t *Tree) parentOf(target *node) *node {
	var found *node
	var walk func(n *node)
	walk = func(n *node) {
		for _, c := range n.children {
			if c == target {
				found = n
				return
			}
			walk(c)
		}
	}
	walk(t.root)
	for _, p := range t.paths {
		walk(p)
	}
	return found
}

func (t *Tree) IsValid(n api.Node) bool {
	nd, ok := n.(*node)
	return ok && nd != nil
}

func (t *Tree) IsEnabled(n api.Node) bool {
	nd, ok := n.(*node)
	return ok && nd.enabled
}

func (t *Tree) PreReloc(n api.Node) bool {
	nd, ok := n.(*node)
	return ok && nd.preReloc
}

func (t *Tree) GetName(n api.Node) string {
	nd, ok := n.(*node)
	if !ok {
		return ""
	}
	return nd.name
}

func (t *Tree) GetProperty(n api.Node, name string) ([]byte, int, bool) {
	nd, ok := n.(*node)
	if !ok || name != "compatible" {
		return nil, 0, false
	}
	if len(nd.compatible) == 0 {
		return nil, 0, false
	}
	var buf bytes.Buffer
	for _, c := range nd.compatible {
		buf.WriteString(c)
		buf.WriteByte(0)
	}
	return buf.Bytes(), buf.Len(), true
}

func (t *Tree) Path(path string) (api.Node, bool) {
	n, ok := t.paths[path]
	return n, ok
}
