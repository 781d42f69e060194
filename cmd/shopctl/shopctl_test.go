package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/diewo77/shop-api/internal/migrate"
	"github.com/diewo77/shop-api/internal/migrations"
)

// useSQLite points the commands at a fresh sqlite file.
func useSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "shop.db"))
}

func run(_ *qt.C, args ...string) (string, error) {
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func status(c *qt.C) migrate.Status {
	out, err := run(c, "migrate", "status", "--format", "json")
	c.Assert(err, qt.IsNil)
	var st migrate.Status
	c.Assert(json.Unmarshal([]byte(out), &st), qt.IsNil)
	return st
}

func TestMigrateUpDownStatus(t *testing.T) {
	c := qt.New(t)
	useSQLite(t)

	st := status(c)
	c.Assert(st.CurrentVersion, qt.Equals, int64(0))
	c.Assert(st.Pending, qt.DeepEquals, []int64{migrations.InitialCatalog, migrations.ProductType})

	out, err := run(c, "migrate", "up")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Database is up to date")
	c.Assert(out, qt.Contains, strconv.FormatInt(migrations.ProductType, 10))

	st = status(c)
	c.Assert(st.CurrentVersion, qt.Equals, migrations.ProductType)
	c.Assert(st.HasPending, qt.IsFalse)

	// Without --to, down rolls back one unit.
	_, err = run(c, "migrate", "down")
	c.Assert(err, qt.IsNil)
	c.Assert(status(c).CurrentVersion, qt.Equals, migrations.InitialCatalog)

	_, err = run(c, "migrate", "down", "--to", "0")
	c.Assert(err, qt.IsNil)
	st = status(c)
	c.Assert(st.CurrentVersion, qt.Equals, int64(0))
	c.Assert(st.Applied, qt.HasLen, 0)
}

func TestMigrateUpTo(t *testing.T) {
	c := qt.New(t)
	useSQLite(t)

	out, err := run(c, "migrate", "up", "--to", strconv.FormatInt(migrations.InitialCatalog, 10))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "pending")
	c.Assert(out, qt.Not(qt.Contains), "Database is up to date")

	st := status(c)
	c.Assert(st.CurrentVersion, qt.Equals, migrations.InitialCatalog)
	c.Assert(st.Pending, qt.DeepEquals, []int64{migrations.ProductType})
}

func TestMigrateInvalidFlags(t *testing.T) {
	c := qt.New(t)
	useSQLite(t)

	_, err := run(c, "migrate", "up", "--to", "yesterday")
	c.Assert(err, qt.ErrorMatches, `invalid --to "yesterday".*`)

	_, err = run(c, "migrate", "down", "--to", "-3")
	c.Assert(err, qt.ErrorMatches, `invalid --to "-3".*`)

	_, err = run(c, "migrate", "status", "--format", "yaml")
	c.Assert(err, qt.ErrorMatches, `unknown format "yaml"`)

	_, err = run(c, "migrate", "sql", "--dialect", "mysql")
	c.Assert(err, qt.ErrorMatches, `unsupported dialect "mysql"`)
}

func TestMigrateSQL(t *testing.T) {
	c := qt.New(t)

	out, err := run(c, "migrate", "sql", "--dialect", "sqlite")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "CREATE TABLE")
	c.Assert(strings.Index(out, "initial catalog") < strings.Index(out, "add product_type"), qt.IsTrue)

	out, err = run(c, "migrate", "sql", "--dialect", "postgres", "--down")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "DROP TABLE")
	c.Assert(out, qt.Contains, "(down)")
	c.Assert(strings.Index(out, "add product_type") < strings.Index(out, "initial catalog"), qt.IsTrue)
}

func TestMigrateFiles(t *testing.T) {
	c := qt.New(t)
	useSQLite(t)

	dir := t.TempDir()
	files := map[string]string{
		"1_widgets.up.sql":   "CREATE TABLE widgets (id INTEGER PRIMARY KEY);",
		"1_widgets.down.sql": "DROP TABLE widgets;",
		"2_gadgets.up.sql":   "CREATE TABLE gadgets (id INTEGER PRIMARY KEY);",
		"2_gadgets.down.sql": "DROP TABLE gadgets;",
	}
	for name, body := range files {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600), qt.IsNil)
	}

	out, err := run(c, "migrate", "files", dir, "--to", "1")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Current version: 1")

	out, err = run(c, "migrate", "files", dir)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Current version: 2")

	_, err = run(c, "migrate", "files", filepath.Join(dir, "missing"))
	c.Assert(err, qt.IsNotNil)
}

func TestSeed(t *testing.T) {
	c := qt.New(t)
	useSQLite(t)

	_, err := run(c, "migrate", "up")
	c.Assert(err, qt.IsNil)

	out, err := run(c, "seed")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "Reference data seeded\n")

	out, err = run(c, "seed", "--admin-email", "Root@Example.com", "--admin-password", "s3cret-pass")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Admin root@example.com (id 1) ready")

	_, err = run(c, "seed", "--admin-email", "other@example.com")
	c.Assert(err, qt.ErrorMatches, "admin email and password are required")
}
