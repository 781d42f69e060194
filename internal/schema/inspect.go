package schema

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
)

// Snapshot is the observed layout of a live database, normalized so two
// snapshots of the same schema compare equal.
type Snapshot struct {
	Tables []TableInfo
}

// TableInfo is one introspected table. Columns keep their ordinal order;
// indexes and foreign keys are sorted.
type TableInfo struct {
	Name        string
	Columns     []ColumnInfo
	PrimaryKey  []string
	Indexes     []IndexInfo
	ForeignKeys []ForeignKeyInfo
}

type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

type IndexInfo struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKeyInfo is an introspected constraint. Name is empty on SQLite,
// which does not report constraint names.
type ForeignKeyInfo struct {
	Name      string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
}

// Table returns the named table.
func (s *Snapshot) Table(name string) (TableInfo, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableInfo{}, false
}

// Column returns the named column.
func (t TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ForeignKey returns the constraint on column, if any.
func (t TableInfo) ForeignKey(column string) (ForeignKeyInfo, bool) {
	for _, fk := range t.ForeignKeys {
		if fk.Column == column {
			return fk, true
		}
	}
	return ForeignKeyInfo{}, false
}

// Index returns the named index.
func (t TableInfo) Index(name string) (IndexInfo, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexInfo{}, false
}

// Inspect reads the current schema of db. Tables listed in exclude (typically
// the migration bookkeeping table) are skipped.
func Inspect(ctx context.Context, db *gorm.DB, exclude ...string) (*Snapshot, error) {
	d, err := DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	var in inspector
	switch d {
	case SQLite:
		in = sqliteInspector{db: db.WithContext(ctx)}
	default:
		in = postgresInspector{db: db.WithContext(ctx)}
	}

	names, err := in.tables()
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	slices.Sort(names)

	snap := &Snapshot{}
	for _, name := range names {
		if slices.Contains(exclude, name) {
			continue
		}
		t := TableInfo{Name: name}
		if t.Columns, t.PrimaryKey, err = in.columns(name); err != nil {
			return nil, fmt.Errorf("inspect columns of %s: %w", name, err)
		}
		if t.Indexes, err = in.indexes(name); err != nil {
			return nil, fmt.Errorf("inspect indexes of %s: %w", name, err)
		}
		if t.ForeignKeys, err = in.foreignKeys(name); err != nil {
			return nil, fmt.Errorf("inspect foreign keys of %s: %w", name, err)
		}
		slices.SortFunc(t.Indexes, func(a, b IndexInfo) int { return strings.Compare(a.Name, b.Name) })
		slices.SortFunc(t.ForeignKeys, func(a, b ForeignKeyInfo) int {
			return strings.Compare(a.Column+"\x00"+a.RefTable, b.Column+"\x00"+b.RefTable)
		})
		snap.Tables = append(snap.Tables, t)
	}
	return snap, nil
}

type inspector interface {
	tables() ([]string, error)
	columns(table string) ([]ColumnInfo, []string, error)
	indexes(table string) ([]IndexInfo, error)
	foreignKeys(table string) ([]ForeignKeyInfo, error)
}

func eachRow(db *gorm.DB, scan func(*sql.Rows) error, query string, args ...any) error {
	rows, err := db.Raw(query, args...).Rows()
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

type sqliteInspector struct {
	db *gorm.DB
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s sqliteInspector) tables() ([]string, error) {
	var names []string
	err := eachRow(s.db, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	}, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	return names, err
}

func (s sqliteInspector) columns(table string) ([]ColumnInfo, []string, error) {
	type keyed struct {
		pos  int
		name string
	}
	var cols []ColumnInfo
	var pk []keyed
	err := eachRow(s.db, func(rows *sql.Rows) error {
		var (
			cid, notNull, pkPos int
			name, typ           string
			dflt                sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pkPos); err != nil {
			return err
		}
		cols = append(cols, ColumnInfo{
			Name:     name,
			Type:     strings.ToUpper(typ),
			Nullable: notNull == 0 && pkPos == 0,
			Default:  dflt.String,
		})
		if pkPos > 0 {
			pk = append(pk, keyed{pkPos, name})
		}
		return nil
	}, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, nil, err
	}
	slices.SortFunc(pk, func(a, b keyed) int { return a.pos - b.pos })
	keys := make([]string, 0, len(pk))
	for _, k := range pk {
		keys = append(keys, k.name)
	}
	return cols, keys, nil
}

func (s sqliteInspector) indexes(table string) ([]IndexInfo, error) {
	var out []IndexInfo
	err := eachRow(s.db, func(rows *sql.Rows) error {
		var (
			seq, unique, partial int
			name, origin         string
		)
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return err
		}
		out = append(out, IndexInfo{Name: name, Unique: unique == 1})
		return nil
	}, "PRAGMA index_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}

	for i := range out {
		err := eachRow(s.db, func(rows *sql.Rows) error {
			var seqno, cid int
			var name sql.NullString
			if err := rows.Scan(&seqno, &cid, &name); err != nil {
				return err
			}
			out[i].Columns = append(out[i].Columns, name.String)
			return nil
		}, "PRAGMA index_info("+quoteIdent(out[i].Name)+")")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s sqliteInspector) foreignKeys(table string) ([]ForeignKeyInfo, error) {
	var out []ForeignKeyInfo
	err := eachRow(s.db, func(rows *sql.Rows) error {
		var (
			id, seq                                int
			refTable, from, onUpdate, onDel, match string
			to                                     sql.NullString
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDel, &match); err != nil {
			return err
		}
		out = append(out, ForeignKeyInfo{
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
			OnDelete:  onDel,
		})
		return nil
	}, "PRAGMA foreign_key_list("+quoteIdent(table)+")")
	return out, err
}

type postgresInspector struct {
	db *gorm.DB
}

func (p postgresInspector) tables() ([]string, error) {
	var names []string
	err := eachRow(p.db, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
		return nil
	}, `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`)
	return names, err
}

func (p postgresInspector) columns(table string) ([]ColumnInfo, []string, error) {
	var cols []ColumnInfo
	err := eachRow(p.db, func(rows *sql.Rows) error {
		var (
			name, dataType, nullable string
			length                   sql.NullInt64
			dflt                     sql.NullString
		)
		if err := rows.Scan(&name, &dataType, &length, &nullable, &dflt); err != nil {
			return err
		}
		typ := strings.ToUpper(dataType)
		if length.Valid {
			typ = fmt.Sprintf("%s(%d)", typ, length.Int64)
		}
		cols = append(cols, ColumnInfo{
			Name:     name,
			Type:     typ,
			Nullable: nullable == "YES",
			Default:  dflt.String,
		})
		return nil
	}, `SELECT column_name, data_type, character_maximum_length, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, nil, err
	}

	var pk []string
	err = eachRow(p.db, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		pk = append(pk, name)
		return nil
	}, `SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema() AND tc.table_name = ?
		ORDER BY kcu.ordinal_position`, table)
	return cols, pk, err
}

func (p postgresInspector) indexes(table string) ([]IndexInfo, error) {
	var out []IndexInfo
	err := eachRow(p.db, func(rows *sql.Rows) error {
		var (
			name, column string
			unique       bool
		)
		if err := rows.Scan(&name, &column, &unique); err != nil {
			return err
		}
		if n := len(out); n > 0 && out[n-1].Name == name {
			out[n-1].Columns = append(out[n-1].Columns, column)
			return nil
		}
		out = append(out, IndexInfo{Name: name, Columns: []string{column}, Unique: unique})
		return nil
	}, `SELECT i.relname, a.attname, ix.indisunique
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = current_schema() AND t.relname = ?
		ORDER BY i.relname, array_position(ix.indkey::smallint[], a.attnum)`, table)
	return out, err
}

func (p postgresInspector) foreignKeys(table string) ([]ForeignKeyInfo, error) {
	var out []ForeignKeyInfo
	err := eachRow(p.db, func(rows *sql.Rows) error {
		var fk ForeignKeyInfo
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete); err != nil {
			return err
		}
		out = append(out, fk)
		return nil
	}, `SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name, rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = current_schema() AND tc.table_name = ?
		ORDER BY tc.constraint_name, kcu.ordinal_position`, table)
	return out, err
}
