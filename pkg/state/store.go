package state

// Store holds the live value tree of a form. Writes swap the root for a new
// tree built by Assign, so snapshots taken earlier never observe later edits.
// Store is not safe for concurrent use; callers serialise access.
type Store struct {
	root Node
}

// NewStore seeds a store with root. A leaf root is replaced by an empty group.
func NewStore(root Node) *Store {
	if !root.IsGroup() {
		root = EmptyGroup()
	}
	return &Store{root: root}
}

// Root returns the current tree. Trees are immutable, so the result is a
// stable snapshot.
func (s *Store) Root() Node {
	if s == nil {
		return EmptyGroup()
	}
	return s.root
}

// Get resolves path against the current tree.
func (s *Store) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return Resolve(s.root, path)
}

// Set writes value at path.
func (s *Store) Set(path string, value any) {
	s.root = Assign(s.root, path, value)
}

// Reset replaces the whole tree.
func (s *Store) Reset(root Node) {
	if !root.IsGroup() {
		root = EmptyGroup()
	}
	s.root = root
}

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() Node {
	return s.Root().Clone()
}
