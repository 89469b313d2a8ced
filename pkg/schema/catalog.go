package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrSchemaNotFound is returned when a catalog lookup misses.
	ErrSchemaNotFound = errors.New("schema: schema not found")
	// ErrDuplicateSchema is returned when a schema id is registered twice.
	ErrDuplicateSchema = errors.New("schema: schema already registered")
)

// Schema is a named, ordered list of root fields.
type Schema struct {
	ID     string  `json:"id" yaml:"id"`
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Label returns the title, falling back to the id.
func (s Schema) Label() string {
	if s.Title != "" {
		return s.Title
	}
	return s.ID
}

// Catalog maps schema identifiers to schemas while keeping registration
// order. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	schemas map[string]Schema
}

// NewCatalog registers every schema, failing on the first invalid or
// duplicate entry.
func NewCatalog(schemas ...Schema) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		if err := c.Add(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustCatalog panics when NewCatalog fails. Useful for fixtures.
func MustCatalog(schemas ...Schema) *Catalog {
	c, err := NewCatalog(schemas...)
	if err != nil {
		panic(err)
	}
	return c
}

// Add checks and registers a schema.
func (c *Catalog) Add(s Schema) error {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return errors.New("schema: schema id is required")
	}
	s.ID = id
	if err := Check(s.Fields); err != nil {
		return fmt.Errorf("schema: %q: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schemas == nil {
		c.schemas = make(map[string]Schema)
	}
	if _, exists := c.schemas[id]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSchema, id)
	}
	c.schemas[id] = s
	c.order = append(c.order, id)
	return nil
}

// Get returns the schema registered under id.
func (c *Catalog) Get(id string) (Schema, bool) {
	if c == nil {
		return Schema{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[id]
	return s, ok
}

// Lookup is Get returning ErrSchemaNotFound on a miss.
func (c *Catalog) Lookup(id string) (Schema, error) {
	s, ok := c.Get(id)
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrSchemaNotFound, id)
	}
	return s, nil
}

// IDs lists schema ids in registration order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// List returns every schema in registration order.
func (c *Catalog) List() []Schema {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Schema, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.schemas[id])
	}
	return out
}

// Len reports how many schemas are registered.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}
