package catalog

import "sort"

// Memory is an in-memory Catalog for tests. It resolves entity types and
// answers field-existence checks without a backing database. Records created
// through it are never persisted.
type Memory struct {
	types map[string]*memoryEntity
}

// NewMemory creates an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{types: make(map[string]*memoryEntity)}
}

// Define registers an entity type. Redefining a name replaces its fields.
func (m *Memory) Define(name string, fields ...Field) {
	name = Normalize(name)
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		f.Name = Normalize(f.Name)
		byName[f.Name] = f
	}
	m.types[name] = &memoryEntity{name: name, byName: byName}
}

// Resolve looks up a previously defined entity type.
func (m *Memory) Resolve(name string) (EntityType, bool) {
	t, ok := m.types[Normalize(name)]
	if !ok {
		return nil, false
	}
	return t, true
}

type memoryEntity struct {
	name   string
	byName map[string]Field
}

func (e *memoryEntity) Name() string { return e.name }

func (e *memoryEntity) HasField(name string) bool {
	name = Normalize(name)
	if name == IDField {
		return true
	}
	_, ok := e.byName[name]
	return ok
}

func (e *memoryEntity) Fields() []Field {
	fields := make([]Field, 0, len(e.byName))
	for _, f := range e.byName {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

func (e *memoryEntity) NewRecord() *Record {
	return NewRecord(e.name)
}
