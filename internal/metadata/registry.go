package metadata

import "fmt"

// Registry is the process-wide catalog of entities. It is built once at
// startup and never mutated afterwards, so lookups need no locking.
type Registry struct {
	entities map[string]*Entity
	names    []string
}

// NewRegistry builds a registry from the given entities. It panics on
// duplicate names or malformed descriptors; the catalog is static and a bad
// descriptor is a programming error, not a runtime condition.
func NewRegistry(entities []*Entity) *Registry {
	r := &Registry{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if err := validateEntity(e); err != nil {
			panic(fmt.Sprintf("metadata: invalid entity %q: %v", e.Name, err))
		}
		if _, dup := r.entities[e.Name]; dup {
			panic(fmt.Sprintf("metadata: duplicate entity %q", e.Name))
		}
		r.entities[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	return r
}

// Get returns the entity with the given name, or nil.
func (r *Registry) Get(name string) *Entity {
	return r.entities[name]
}

// Names returns all entity names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns all registered entities in registration order.
func (r *Registry) All() []*Entity {
	entities := make([]*Entity, 0, len(r.names))
	for _, name := range r.names {
		entities = append(entities, r.entities[name])
	}
	return entities
}

func validateEntity(e *Entity) error {
	if e.Name == "" || e.Table == "" {
		return fmt.Errorf("name and table are required")
	}
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("field with empty name")
		}
		if f.Name == PrimaryKey {
			return fmt.Errorf("field %q shadows the primary key", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case TypeInteger, TypeFloat, TypeString, TypeBoolean, TypeTimestamp:
		default:
			return fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	if e.OwnerField != "" {
		f := e.GetField(e.OwnerField)
		if f == nil {
			return fmt.Errorf("owner field %q is not declared", e.OwnerField)
		}
		if f.Type != TypeString {
			return fmt.Errorf("owner field %q must be a string field", e.OwnerField)
		}
	}
	return nil
}
