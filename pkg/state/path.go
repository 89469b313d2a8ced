package state

import (
	"sort"

	"github.com/goliatone/go-formengine/pkg/fieldpath"
)

// Lookup walks path one segment at a time and returns the node found there.
// Missing intermediate segments, or a leaf in an intermediate position, report
// false instead of failing.
func Lookup(tree Node, path string) (Node, bool) {
	segments := fieldpath.Split(path)
	if len(segments) == 0 {
		return Node{}, false
	}
	current := tree
	for _, segment := range segments {
		next, ok := current.Child(segment)
		if !ok {
			return Node{}, false
		}
		current = next
	}
	return current, true
}

// Resolve returns the value stored at path. Untouched fields and missing
// intermediate groups yield (nil, false).
func Resolve(tree Node, path string) (any, bool) {
	node, ok := Lookup(tree, path)
	if !ok {
		return nil, false
	}
	return node.Value(), true
}

// Assign returns a tree where value is stored at path. Every node on the
// root-to-leaf walk is newly allocated and untouched siblings are shared;
// nothing reachable from tree is modified. Missing intermediates become empty
// groups and a leaf sitting where a group is needed is replaced. An empty path
// returns tree unchanged.
func Assign(tree Node, path string, value any) Node {
	segments := fieldpath.Split(path)
	if len(segments) == 0 {
		return tree
	}
	return assign(tree, segments, Leaf(value))
}

// AssignNode is Assign for a whole subtree.
func AssignNode(tree Node, path string, node Node) Node {
	segments := fieldpath.Split(path)
	if len(segments) == 0 {
		return tree
	}
	return assign(tree, segments, node)
}

func assign(current Node, segments []string, leaf Node) Node {
	children := make(map[string]Node, len(current.children)+1)
	if current.group {
		for name, child := range current.children {
			children[name] = child
		}
	}

	head := segments[0]
	if len(segments) == 1 {
		children[head] = leaf
	} else {
		next, ok := children[head]
		if !ok || !next.group {
			next = EmptyGroup()
		}
		children[head] = assign(next, segments[1:], leaf)
	}
	return Node{group: true, children: children}
}

// Paths lists the dotted path of every leaf in tree, sorted.
func Paths(tree Node) []string {
	var out []string
	collectPaths(tree, "", &out)
	sort.Strings(out)
	return out
}

func collectPaths(node Node, prefix string, out *[]string) {
	for name, child := range node.children {
		path := fieldpath.Join(prefix, name)
		if child.group {
			collectPaths(child, path, out)
			continue
		}
		*out = append(*out, path)
	}
}
