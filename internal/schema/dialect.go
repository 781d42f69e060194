package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect renders DDL for one database engine. Every method returns the
// statements to execute in order; an empty result means the engine has no
// standalone statement for that change.
type Dialect struct {
	name string
}

var (
	Postgres = Dialect{name: "postgres"}
	SQLite   = Dialect{name: "sqlite"}
)

// DialectFor maps a gorm dialector name to a Dialect.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.name:
		return Postgres, nil
	case SQLite.name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported dialect %q", name)
	}
}

func (d Dialect) Name() string { return d.name }

func (d Dialect) String() string { return d.name }

func (d Dialect) columnType(c Column) string {
	switch c.Type {
	case TypeInteger:
		if d == Postgres && c.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case TypeString:
		n := c.Length
		if n <= 0 {
			n = 255
		}
		return "VARCHAR(" + strconv.Itoa(n) + ")"
	case TypeText:
		return "TEXT"
	case TypeTimestamp:
		if d == SQLite {
			return "DATETIME"
		}
		return "TIMESTAMP(0) WITHOUT TIME ZONE"
	default:
		return strings.ToUpper(string(c.Type))
	}
}

func (d Dialect) columnDef(c Column) string {
	if d == SQLite && c.PrimaryKey && c.AutoIncrement {
		return c.Name + " INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL"
	}
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(d.columnType(c))
	switch {
	case c.Default != "":
		b.WriteString(" DEFAULT " + c.Default)
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
	case c.Nullable:
		b.WriteString(" DEFAULT NULL")
	default:
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func references(fk ForeignKey) string {
	s := "REFERENCES " + fk.RefTable + " (" + fk.RefColumn + ")"
	if fk.OnDelete != "" {
		s += " ON DELETE " + string(fk.OnDelete)
	}
	return s
}

// CreateTable renders the table with its keys, followed by its indexes.
func (d Dialect) CreateTable(t Table) []string {
	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	for _, c := range t.Columns {
		defs = append(defs, d.columnDef(c))
	}

	pk := t.primaryKey()
	inlinePK := d == SQLite && len(t.PrimaryKey) == 0
	if len(pk) > 0 && !inlinePK {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		defs = append(defs, "CONSTRAINT "+fk.Name+" FOREIGN KEY ("+fk.Column+") "+references(fk))
	}

	stmts := []string{"CREATE TABLE " + t.Name + " (" + strings.Join(defs, ", ") + ")"}
	for _, idx := range t.Indexes {
		stmts = append(stmts, d.CreateIndex(t.Name, idx)...)
	}
	return stmts
}

// DropTable drops the table and, implicitly, its indexes.
func (d Dialect) DropTable(name string) []string {
	return []string{"DROP TABLE " + name}
}

// AddColumn adds c to table. SQLite cannot attach a foreign key to an
// existing table, so a non-nil fk is rendered inline on that engine.
func (d Dialect) AddColumn(table string, c Column, fk *ForeignKey) []string {
	def := d.columnDef(c)
	if d == SQLite && fk != nil {
		def += " CONSTRAINT " + fk.Name + " " + references(*fk)
	}
	return []string{"ALTER TABLE " + table + " ADD COLUMN " + def}
}

// DropColumn removes a column. Indexes on it must be dropped first.
func (d Dialect) DropColumn(table, column string) []string {
	return []string{"ALTER TABLE " + table + " DROP COLUMN " + column}
}

// AddForeignKey attaches fk to an existing table. No-op on SQLite (see AddColumn).
func (d Dialect) AddForeignKey(table string, fk ForeignKey) []string {
	if d == SQLite {
		return nil
	}
	return []string{"ALTER TABLE " + table + " ADD CONSTRAINT " + fk.Name + " FOREIGN KEY (" + fk.Column + ") " + references(fk)}
}

// DropForeignKey removes a named constraint. No-op on SQLite, where the
// constraint goes away with its column.
func (d Dialect) DropForeignKey(table, name string) []string {
	if d == SQLite {
		return nil
	}
	return []string{"ALTER TABLE " + table + " DROP CONSTRAINT " + name}
}

// CreateIndex renders a secondary index on table.
func (d Dialect) CreateIndex(table string, idx Index) []string {
	kw := "CREATE INDEX "
	if idx.Unique {
		kw = "CREATE UNIQUE INDEX "
	}
	return []string{kw + idx.Name + " ON " + table + " (" + strings.Join(idx.Columns, ", ") + ")"}
}

// DropIndex drops a named index. Index names are schema-wide on both engines.
func (d Dialect) DropIndex(_ string, name string) []string {
	return []string{"DROP INDEX " + name}
}
