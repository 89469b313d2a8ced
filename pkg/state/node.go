// Package state models form values as an explicit tree of leaf and group
// nodes addressed by dotted paths.
package state

import (
	"reflect"
	"sort"

	json "github.com/goccy/go-json"
)

// Node is either a leaf holding a single field value or a group mapping child
// names to nodes. Nodes are values: every operation in this package returns
// new nodes and never mutates anything reachable from its inputs.
type Node struct {
	group    bool
	value    any
	children map[string]Node
}

// Leaf wraps a field value. Slices and maps are copied.
func Leaf(value any) Node {
	return Node{value: copyValue(value)}
}

// Group builds a group node from children. The map is copied.
func Group(children map[string]Node) Node {
	out := make(map[string]Node, len(children))
	for name, child := range children {
		out[name] = child
	}
	return Node{group: true, children: out}
}

// EmptyGroup returns a group without children.
func EmptyGroup() Node {
	return Node{group: true, children: map[string]Node{}}
}

// IsGroup reports whether the node nests other nodes.
func (n Node) IsGroup() bool {
	return n.group
}

// Value returns a copy of the leaf value. Groups return their plain map form.
func (n Node) Value() any {
	if n.group {
		return n.Interface()
	}
	return copyValue(n.value)
}

// Child returns the named child of a group.
func (n Node) Child(name string) (Node, bool) {
	if !n.group {
		return Node{}, false
	}
	child, ok := n.children[name]
	return child, ok
}

// Names lists child names of a group in sorted order.
func (n Node) Names() []string {
	if !n.group || len(n.children) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of direct children.
func (n Node) Len() int {
	return len(n.children)
}

// Interface converts the node into plain Go values: groups become
// map[string]any, leaves their (copied) value. The result shares nothing with
// the node and is directly JSON serialisable.
func (n Node) Interface() any {
	if !n.group {
		return copyValue(n.value)
	}
	out := make(map[string]any, len(n.children))
	for name, child := range n.children {
		out[name] = child.Interface()
	}
	return out
}

// Map returns the plain form of a group node. Leaves return nil.
func (n Node) Map() map[string]any {
	if !n.group {
		return nil
	}
	out, _ := n.Interface().(map[string]any)
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	if !n.group {
		return Leaf(n.value)
	}
	children := make(map[string]Node, len(n.children))
	for name, child := range n.children {
		children[name] = child.Clone()
	}
	return Node{group: true, children: children}
}

// MarshalJSON encodes the plain form of the node.
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Interface())
}

// UnmarshalJSON decodes a JSON object into a group tree. Non-object payloads
// become a leaf.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = FromInterface(raw)
	return nil
}

// FromInterface converts plain values into a tree: every map[string]any
// becomes a group, anything else a leaf.
func FromInterface(value any) Node {
	mapped, ok := value.(map[string]any)
	if !ok {
		return Leaf(value)
	}
	children := make(map[string]Node, len(mapped))
	for name, child := range mapped {
		children[name] = FromInterface(child)
	}
	return Node{group: true, children: children}
}

// copyValue deep-copies slices and maps of any element type so no leaf
// shares memory with its caller. Pointers and other values are kept as is.
func copyValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = copyValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = copyValue(v)
		}
		return clone
	case []string:
		return append([]string{}, typed...)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return copyReflect(rv).Interface()
	default:
		return value
	}
}

func copyReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyReflect(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyReflect(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyReflect(iter.Value()))
		}
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(copyReflect(v.Elem()))
		return out
	default:
		return v
	}
}
