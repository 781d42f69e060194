// Package schema describes the relational layout of the shop as plain Go
// values: tables, columns, keys, indexes and the relations between entities.
// Migrations render these descriptors into dialect specific DDL.
package schema

import (
	"errors"
	"fmt"
)

// ColumnType is a portable column type.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeString    ColumnType = "string"
	TypeText      ColumnType = "text"
	TypeTimestamp ColumnType = "timestamp"
)

// OnDelete is the referential action applied when a referenced row is deleted.
type OnDelete string

const (
	Restrict OnDelete = "RESTRICT"
	SetNull  OnDelete = "SET NULL"
	Cascade  OnDelete = "CASCADE"
)

// Column describes one table column.
type Column struct {
	Name          string
	Type          ColumnType
	Length        int // for TypeString
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	Default       string // raw SQL literal, empty for none
}

// ForeignKey links Column to RefTable.RefColumn.
type ForeignKey struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  OnDelete
}

// Index is a secondary index.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Table is a full table definition.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string // composite keys; single autoincrement keys use Column.PrimaryKey
	ForeignKeys []ForeignKey
	Indexes     []Index
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// primaryKey returns the key columns whether declared inline or composite.
func (t Table) primaryKey() []string {
	if len(t.PrimaryKey) > 0 {
		return t.PrimaryKey
	}
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// RelationKind is the cardinality of a relation seen from its owner.
type RelationKind string

const (
	ManyToOne  RelationKind = "many-to-one"
	OneToMany  RelationKind = "one-to-many"
	ManyToMany RelationKind = "many-to-many"
)

// Relation describes an association between two tables. Owning relations
// persist the link (a foreign key column or a join table); inverse relations
// only mirror it and name the owning relation in MappedBy.
type Relation struct {
	Name       string // e.g. "products.type"
	Kind       RelationKind
	Owner      string // table holding the relation
	Target     string // related table
	Column     string // FK column on Owner, owning many-to-one only
	JoinTable  string // owning many-to-many only
	InversedBy string // name of the inverse relation, if any
	MappedBy   string // set on inverse relations: the owning relation name
	OnDelete   OnDelete
}

// Owning reports whether the relation persists the association.
func (r Relation) Owning() bool { return r.MappedBy == "" }

// Registry is the complete schema: tables plus relation metadata.
type Registry struct {
	Tables    []Table
	Relations []Relation
}

// Table returns the named table.
func (r Registry) Table(name string) (Table, bool) {
	for _, t := range r.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Relation returns the named relation.
func (r Registry) Relation(name string) (Relation, bool) {
	for _, rel := range r.Relations {
		if rel.Name == name {
			return rel, true
		}
	}
	return Relation{}, false
}

// Validate checks that every relation is backed by real tables and columns and
// that each owning/inverse pair is self-consistent with a single owning side.
func (r Registry) Validate() error {
	var errs []error
	seen := make(map[string]bool)
	for _, rel := range r.Relations {
		if seen[rel.Name] {
			errs = append(errs, fmt.Errorf("relation %s: declared twice", rel.Name))
			continue
		}
		seen[rel.Name] = true
		if err := r.validateRelation(rel); err != nil {
			errs = append(errs, fmt.Errorf("relation %s: %w", rel.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (r Registry) validateRelation(rel Relation) error {
	owner, ok := r.Table(rel.Owner)
	if !ok {
		return fmt.Errorf("unknown owner table %q", rel.Owner)
	}
	if _, ok := r.Table(rel.Target); !ok {
		return fmt.Errorf("unknown target table %q", rel.Target)
	}

	if !rel.Owning() {
		owning, ok := r.Relation(rel.MappedBy)
		if !ok {
			return fmt.Errorf("mapped by unknown relation %q", rel.MappedBy)
		}
		if !owning.Owning() {
			return fmt.Errorf("mapped by %q which is itself an inverse side", rel.MappedBy)
		}
		if owning.InversedBy != rel.Name {
			return fmt.Errorf("owning relation %q does not point back (inversed by %q)", owning.Name, owning.InversedBy)
		}
		if owning.Owner != rel.Target || owning.Target != rel.Owner {
			return fmt.Errorf("tables do not mirror owning relation %q", owning.Name)
		}
		return nil
	}

	switch rel.Kind {
	case ManyToOne:
		if _, ok := owner.Column(rel.Column); !ok {
			return fmt.Errorf("missing column %s.%s", rel.Owner, rel.Column)
		}
	case ManyToMany:
		if _, ok := r.Table(rel.JoinTable); !ok {
			return fmt.Errorf("missing join table %q", rel.JoinTable)
		}
	default:
		return fmt.Errorf("%s cannot be an owning side", rel.Kind)
	}

	if rel.InversedBy != "" {
		inverse, ok := r.Relation(rel.InversedBy)
		if !ok {
			return fmt.Errorf("inversed by unknown relation %q", rel.InversedBy)
		}
		if inverse.Owning() {
			return fmt.Errorf("both %q and %q are owning sides", rel.Name, inverse.Name)
		}
	}
	return nil
}
