package metadata

// Field types understood by the access layer and the migrator.
const (
	TypeInteger   = "integer"
	TypeFloat     = "float"
	TypeString    = "string"
	TypeBoolean   = "boolean"
	TypeTimestamp = "timestamp"
)

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
	Unique   bool   `json:"unique,omitempty"`
	Default  any    `json:"default,omitempty"`
}

// Entity describes one persisted record kind. The primary key is always a
// surrogate auto-incrementing integer column named "id". OwnerField, when
// set, names the string field that scopes every read and write to the
// calling identity.
type Entity struct {
	Name       string  `json:"name"`
	Table      string  `json:"table"`
	OwnerField string  `json:"owner_field,omitempty"`
	Fields     []Field `json:"fields"`
}

// PrimaryKey is the surrogate key column shared by every entity.
const PrimaryKey = "id"

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
// The primary key counts as a field even though it is not listed in Fields.
func (e *Entity) HasField(name string) bool {
	return name == PrimaryKey || e.GetField(name) != nil
}

// IsOwnerScoped returns true if records of this entity belong to a caller.
func (e *Entity) IsOwnerScoped() bool {
	return e.OwnerField != ""
}

// FieldNames returns all column names, primary key first.
func (e *Entity) FieldNames() []string {
	names := make([]string, 0, len(e.Fields)+1)
	names = append(names, PrimaryKey)
	for _, f := range e.Fields {
		names = append(names, f.Name)
	}
	return names
}

// BooleanFields returns the names of all boolean fields. Used to fix up
// rows read from SQLite, where booleans come back as integers.
func (e *Entity) BooleanFields() []string {
	var names []string
	for _, f := range e.Fields {
		if f.Type == TypeBoolean {
			names = append(names, f.Name)
		}
	}
	return names
}
