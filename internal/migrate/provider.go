package migrate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"strings"

	"github.com/golang-migrate/migrate/v4/database/multistmt"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Provider supplies migrations sorted by ascending version.
type Provider interface {
	Migrations() []*Migration
}

// RegisteredProvider holds migrations defined in code.
type RegisteredProvider struct {
	migrations []*Migration
	sorted     bool
}

// NewRegisteredProvider returns a provider for ms. Order does not matter;
// Migrations sorts on first access.
func NewRegisteredProvider(ms ...*Migration) *RegisteredProvider {
	return &RegisteredProvider{migrations: ms}
}

// Register adds m to the provider.
func (p *RegisteredProvider) Register(m *Migration) {
	p.migrations = append(p.migrations, m)
	p.sorted = false
}

func (p *RegisteredProvider) Migrations() []*Migration {
	if !p.sorted {
		sortMigrations(p.migrations)
		p.sorted = true
	}
	return p.migrations
}

func sortMigrations(ms []*Migration) {
	slices.SortStableFunc(ms, func(a, b *Migration) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
}

// validate rejects unusable sets: duplicate versions, non-positive versions or
// units missing a direction.
func validate(ms []*Migration) error {
	var errs []error
	seen := make(map[int64]bool, len(ms))
	for _, m := range ms {
		if m == nil {
			errs = append(errs, errors.New("nil migration"))
			continue
		}
		if m.Version <= 0 {
			errs = append(errs, fmt.Errorf("migration %q: version must be positive, got %d", m.Description, m.Version))
		}
		if seen[m.Version] {
			errs = append(errs, fmt.Errorf("duplicate migration version %d", m.Version))
		}
		seen[m.Version] = true
		if m.Up == nil || m.Down == nil {
			errs = append(errs, fmt.Errorf("migration %d: missing up or down", m.Version))
		}
	}
	return errors.Join(errs...)
}

// maxStatementSize bounds a single statement read from a migration file.
const maxStatementSize = 10 << 20

// FSProvider loads {version}_{title}.up.sql / .down.sql pairs from a file
// system. Files are read and split once, when the provider is created.
type FSProvider struct {
	migrations []*Migration
}

// NewFSProvider reads every migration under dir in fsys. Each version must
// ship both an up and a down file.
func NewFSProvider(fsys fs.FS, dir string) (*FSProvider, error) {
	src, err := iofs.New(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	defer src.Close()

	p := &FSProvider{}
	var incomplete []uint
	version, err := src.First()
	for err == nil {
		m, ok, rerr := readMigration(src, version)
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			incomplete = append(incomplete, version)
		} else {
			p.migrations = append(p.migrations, m)
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan migrations in %s: %w", dir, err)
	}
	if len(incomplete) > 0 {
		return nil, fmt.Errorf("incomplete migrations found (missing up or down files): %v", incomplete)
	}
	sortMigrations(p.migrations)
	return p, nil
}

func (p *FSProvider) Migrations() []*Migration {
	return p.migrations
}

func readMigration(src source.Driver, version uint) (*Migration, bool, error) {
	up, title, err := readStatements(src.ReadUp(version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read migration %d up: %w", version, err)
	}
	down, _, err := readStatements(src.ReadDown(version))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read migration %d down: %w", version, err)
	}
	return FromStatements(int64(version), title, up, down), true, nil
}

func readStatements(r io.ReadCloser, identifier string, err error) ([]string, string, error) {
	if err != nil {
		return nil, "", err
	}
	defer r.Close()

	var stmts []string
	perr := multistmt.Parse(r, []byte(";"), maxStatementSize, func(stmt []byte) bool {
		stmt = bytes.TrimSpace(stmt)
		if len(stmt) == 0 || string(stmt) == ";" {
			return true
		}
		stmts = append(stmts, strings.TrimSuffix(string(stmt), ";"))
		return true
	})
	if perr != nil {
		return nil, "", perr
	}
	return stmts, identifier, nil
}
