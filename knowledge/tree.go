// Package knowledge provides hierarchical code trees for domain catalogs:
// asset codes, expense sinks, income sources and tax types. A tree answers
// "this code or any more specific one" queries during account address
// resolution. Trees are immutable once constructed and validate their shape
// up front.
package knowledge

import "fmt"

// TreeData is the plain catalog representation of one code tree.
type TreeData struct {
	Root     string              `yaml:"root" json:"root"`
	Children map[string][]string `yaml:"children" json:"children"`
}

// Tree is a validated code hierarchy. Every non-root code has exactly one
// parent and all codes are reachable from the root.
type Tree struct {
	root     string
	children map[string][]string
	parents  map[string]string
}

// NewTree builds a tree from catalog data. It fails with an InvalidTreeError
// when a code has several parents, the structure contains a cycle, or a
// listed code is unreachable from the root.
func NewTree(data TreeData) (*Tree, error) {
	if data.Root == "" {
		return nil, NewInvalidTreeError("", "tree has no root")
	}

	t := &Tree{
		root:     data.Root,
		children: make(map[string][]string, len(data.Children)),
		parents:  make(map[string]string),
	}

	for code, children := range data.Children {
		t.children[code] = append([]string(nil), children...)
		for _, child := range children {
			if child == data.Root {
				return nil, NewInvalidTreeError(child, "root listed as a child")
			}
			if prev, ok := t.parents[child]; ok {
				return nil, NewInvalidTreeError(child, fmt.Sprintf("multiple parents (%s and %s)", prev, code))
			}
			t.parents[child] = code
		}
	}

	// Walk from the root; single-parent plus full reachability implies
	// the structure is acyclic.
	visited := map[string]bool{data.Root: true}
	stack := []string{data.Root}
	for len(stack) > 0 {
		code := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range t.children[code] {
			if visited[child] {
				return nil, NewInvalidTreeError(child, "cycle detected")
			}
			visited[child] = true
			stack = append(stack, child)
		}
	}
	for code := range t.children {
		if !visited[code] {
			return nil, NewInvalidTreeError(code, "unreachable from root")
		}
	}

	return t, nil
}

// Root returns the root code of the tree.
func (t *Tree) Root() string { return t.root }

// Has reports whether the code is part of the tree.
func (t *Tree) Has(code string) bool {
	if code == t.root {
		return true
	}
	_, ok := t.parents[code]
	return ok
}

// Descendants returns the code and all of its transitive children in
// deterministic preorder, children in declared catalog order. A code absent
// from the tree yields just itself.
func (t *Tree) Descendants(code string) []string {
	out := []string{code}
	for _, child := range t.children[code] {
		out = append(out, t.Descendants(child)...)
	}
	return out
}

// Ancestors returns the path from the code up to the root, starting with the
// code itself. A code absent from the tree yields just itself.
func (t *Tree) Ancestors(code string) []string {
	out := []string{code}
	for {
		parent, ok := t.parents[code]
		if !ok {
			return out
		}
		out = append(out, parent)
		code = parent
	}
}
