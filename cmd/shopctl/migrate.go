package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/db"
	"github.com/diewo77/shop-api/internal/migrate"
	"github.com/diewo77/shop-api/internal/migrations"
	"github.com/diewo77/shop-api/internal/schema"
)

const (
	toFlag      = "to"
	formatFlag  = "format"
	dialectFlag = "dialect"
	downFlag    = "down"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back and inspect schema migrations",
	}
	cmd.AddCommand(newMigrateUpCommand())
	cmd.AddCommand(newMigrateDownCommand())
	cmd.AddCommand(newMigrateStatusCommand())
	cmd.AddCommand(newMigrateFilesCommand())
	cmd.AddCommand(newMigrateSQLCommand())
	return cmd
}

func newMigrateUpCommand() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, set, err := parseVersion(to)
			if err != nil {
				return err
			}
			return withDB(func(conn *gorm.DB) error {
				m, err := newMigrator(cmd, conn)
				if err != nil {
					return err
				}
				return runUp(cmd, m, target, set)
			})
		},
	}
	cmd.Flags().StringVar(&to, toFlag, "", "Stop after this version instead of applying everything")
	return cmd
}

func newMigrateDownCommand() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, set, err := parseVersion(to)
			if err != nil {
				return err
			}
			return withDB(func(conn *gorm.DB) error {
				m, err := newMigrator(cmd, conn)
				if err != nil {
					return err
				}
				if set {
					err = m.DownTo(cmd.Context(), target)
				} else {
					err = m.Down(cmd.Context())
				}
				if err != nil {
					return err
				}
				return printStatus(cmd, m, "text")
			})
		},
	}
	cmd.Flags().StringVar(&to, toFlag, "", "Roll back every migration above this version (0 rolls back everything); default is one step")
	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		formatFlag: &cobraflags.StringFlag{
			Name:  formatFlag,
			Value: "text",
			Usage: "Output format (text, json)",
		},
	}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(func(conn *gorm.DB) error {
				m, err := newMigrator(cmd, conn)
				if err != nil {
					return err
				}
				return printStatus(cmd, m, flags[formatFlag].GetString())
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newMigrateFilesCommand() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "files DIR",
		Short: "Apply NNN_name.up.sql / NNN_name.down.sql files from a directory",
		Long: `Apply migrations read from SQL files instead of the built-in units.

Every version needs both an .up.sql and a .down.sql file. Versions share the
schema_migrations table with the built-in units, so file versions must not
collide with them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, set, err := parseVersion(to)
			if err != nil {
				return err
			}
			provider, err := migrate.NewFSProvider(os.DirFS(args[0]), ".")
			if err != nil {
				return err
			}
			return withDB(func(conn *gorm.DB) error {
				m := migrate.New(conn, provider).WithLogger(cliLogger(cmd))
				return runUp(cmd, m, target, set)
			})
		},
	}
	cmd.Flags().StringVar(&to, toFlag, "", "Stop after this version instead of applying everything")
	return cmd
}

func newMigrateSQLCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		dialectFlag: &cobraflags.StringFlag{
			Name:  dialectFlag,
			Value: schema.Postgres.Name(),
			Usage: "Database dialect (postgres, sqlite)",
		},
	}
	var down bool
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL of the built-in migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := schema.DialectFor(flags[dialectFlag].GetString())
			if err != nil {
				return err
			}
			return printSQL(cmd.OutOrStdout(), d, down)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	cmd.Flags().BoolVar(&down, downFlag, false, "Print the rollback statements instead")
	return cmd
}

// parseVersion reads a --to value; set is false when the flag was left empty.
func parseVersion(raw string) (version int64, set bool, err error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, false, fmt.Errorf("invalid --%s %q: expected a non-negative version", toFlag, raw)
	}
	return v, true, nil
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

func newMigrator(cmd *cobra.Command, conn *gorm.DB) (*migrate.Migrator, error) {
	m, err := db.NewMigrator(conn)
	if err != nil {
		return nil, err
	}
	return m.WithLogger(cliLogger(cmd)), nil
}

func runUp(cmd *cobra.Command, m *migrate.Migrator, target int64, set bool) error {
	var err error
	if set {
		err = m.UpTo(cmd.Context(), target)
	} else {
		err = m.Up(cmd.Context())
	}
	if err != nil {
		return err
	}
	return printStatus(cmd, m, "text")
}

func printStatus(cmd *cobra.Command, m *migrate.Migrator, format string) error {
	st, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(w, "Current version: %d\n", st.CurrentVersion)
	applied := make(map[int64]bool, len(st.Applied))
	for _, v := range st.Applied {
		applied[v] = true
	}
	for _, mig := range m.Provider().Migrations() {
		state := "pending"
		if applied[mig.Version] {
			state = "applied"
		}
		fmt.Fprintf(w, "  %d  %-8s %s\n", mig.Version, state, mig.Description)
	}
	if !st.HasPending {
		fmt.Fprintln(w, "Database is up to date")
	}
	return nil
}

// printSQL writes each built-in unit's statements for d, in the order they run.
func printSQL(w io.Writer, d schema.Dialect, down bool) error {
	units := migrations.Units
	if down {
		units = make([]migrations.Unit, len(migrations.Units))
		for i, u := range migrations.Units {
			units[len(units)-1-i] = u
		}
	}
	for _, u := range units {
		up, rollback := u.SQL(d)
		stmts, dir := up, migrate.DirectionUp
		if down {
			stmts, dir = rollback, migrate.DirectionDown
		}
		if _, err := fmt.Fprintf(w, "-- %d %s (%s)\n", u.Version, u.Description, dir); err != nil {
			return err
		}
		for _, s := range stmts {
			if _, err := fmt.Fprintln(w, strings.TrimSuffix(s, ";")+";"); err != nil {
				return err
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
