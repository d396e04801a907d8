// Package schema compiles profile configuration into the form the ingestor
// and the batch use: the ordered column list plus a compiled rule table.
package schema

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/payroll-batch/internal/config"
	"github.com/ginjaninja78/payroll-batch/internal/validation"
)

// Schema is a compiled profile.
type Schema struct {
	// Name is the profile name.
	Name string

	// Description is free text from the profile.
	Description string

	// BatchField is the column carrying the batch identifier.
	BatchField string

	// IDPrefix is prepended to generated row identifiers.
	IDPrefix string

	// Columns are the canonical fields in display order.
	Columns []config.ColumnConfig

	// Rules is the compiled rule table.
	Rules validation.RuleSet

	index map[string]int
}

// Compile builds a Schema from a profile. defaultIDPrefix is used when the
// profile does not set its own prefix.
func Compile(profile *config.ProfileConfig, defaultIDPrefix string) (*Schema, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	rules, err := validation.Compile(profile.Columns)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", profile.Name, err)
	}

	prefix := profile.IDPrefix
	if prefix == "" {
		prefix = defaultIDPrefix
	}

	s := &Schema{
		Name:        profile.Name,
		Description: profile.Description,
		BatchField:  profile.BatchField,
		IDPrefix:    prefix,
		Columns:     profile.Columns,
		Rules:       rules,
		index:       make(map[string]int, len(profile.Columns)),
	}
	for i, col := range profile.Columns {
		s.index[col.Key] = i
	}
	return s, nil
}

// Column returns the column with the given key.
func (s *Schema) Column(key string) (config.ColumnConfig, bool) {
	i, ok := s.index[key]
	if !ok {
		return config.ColumnConfig{}, false
	}
	return s.Columns[i], true
}

// HasField reports whether key is a column of the schema or its batch field.
func (s *Schema) HasField(key string) bool {
	_, ok := s.index[key]
	return ok || key == s.BatchField
}

// Keys returns the column keys in display order.
func (s *Schema) Keys() []string {
	keys := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		keys[i] = c.Key
	}
	return keys
}

// Fields returns every field a row of this schema carries: the batch field
// first when it is not itself a column, then the column keys.
func (s *Schema) Fields() []string {
	keys := s.Keys()
	if _, ok := s.index[s.BatchField]; ok {
		return keys
	}
	return append([]string{s.BatchField}, keys...)
}

// Labels returns the column labels in display order.
func (s *Schema) Labels() []string {
	labels := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		labels[i] = c.Label
	}
	return labels
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds every compiled schema by name.
type Registry struct {
	schemas map[string]*Schema
}

// NewRegistry compiles every profile.
func NewRegistry(profiles map[string]*config.ProfileConfig, defaultIDPrefix string) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema, len(profiles))}
	for name, p := range profiles {
		s, err := Compile(p, defaultIDPrefix)
		if err != nil {
			return nil, err
		}
		r.schemas[name] = s
	}
	return r, nil
}

// Lookup returns the schema with the given name.
func (r *Registry) Lookup(name string) (*Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (available: %v)", name, r.Names())
	}
	return s, nil
}

// Names returns the schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
