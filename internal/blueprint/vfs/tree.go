// Package vfs derives a navigable tree view from the flat path→content map of
// a generated project and tracks the editing session on top of it. The flat
// map stays the single source of truth; the tree is a disposable view that is
// rebuilt whenever the map changes.
package vfs

import (
	"sort"
	"strings"
)

// Node is one entry of the derived file tree. Folder nodes keep their
// children in insertion order of the first path that introduced them. A node
// is both a file and a folder when one path is a prefix of another, as in
// "a" next to "a/b"; path uniqueness is the map's only structural invariant,
// so such maps must survive the tree round trip too.
type Node struct {
	Name     string  `json:"name"`
	IsFile   bool    `json:"is_file,omitempty"`
	Content  string  `json:"content,omitempty"`
	Children []*Node `json:"children,omitempty"`

	index map[string]*Node
}

// Child returns the named child, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil || n.index == nil {
		return nil
	}
	return n.index[name]
}

func (n *Node) addChild(c *Node) {
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	n.index[c.Name] = c
	n.Children = append(n.Children, c)
}

// BuildTree converts a flat files map into a tree. Map iteration order is not
// stable, so paths are visited in sorted order to keep the result
// deterministic for identical inputs.
func BuildTree(files map[string]string) *Node {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return BuildTreeOrdered(paths, files)
}

// BuildTreeOrdered converts files into a tree visiting paths in the given
// order. Paths absent from files are skipped. Each path is split on '/';
// every segment but the last becomes a folder node, the last a leaf holding
// the content.
func BuildTreeOrdered(paths []string, files map[string]string) *Node {
	root := &Node{Name: ""}
	for _, p := range paths {
		content, ok := files[p]
		if !ok {
			continue
		}
		insertPath(root, p, content)
	}
	return root
}

func insertPath(root *Node, path, content string) {
	segs := strings.Split(path, "/")
	cur := root
	for i, seg := range segs {
		next := cur.Child(seg)
		if next == nil {
			next = &Node{Name: seg}
			cur.addChild(next)
		}
		if i == len(segs)-1 {
			next.IsFile = true
			next.Content = content
		}
		cur = next
	}
}

// Flatten reproduces the flat path→content map from a tree built by
// BuildTree. Round-trip holds: Flatten(BuildTree(files)) equals files.
func Flatten(root *Node) map[string]string {
	out := make(map[string]string)
	if root == nil {
		return out
	}
	var walk func(prefix string, n *Node)
	walk = func(prefix string, n *Node) {
		for _, c := range n.Children {
			p := c.Name
			if prefix != "" {
				p = prefix + "/" + c.Name
			}
			if c.IsFile {
				out[p] = c.Content
			}
			// a file node may also hold children
			walk(p, c)
		}
	}
	walk("", root)
	return out
}

// CountFiles returns the number of leaves under root.
func CountFiles(root *Node) int {
	if root == nil {
		return 0
	}
	n := 0
	for _, c := range root.Children {
		if c.IsFile {
			n++
		}
		n += CountFiles(c)
	}
	return n
}
