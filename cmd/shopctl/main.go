// Command shopctl manages the shop database: it applies and rolls back
// migrations, prints their SQL and seeds reference data.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/config"
	"github.com/diewo77/shop-api/internal/db"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Manage the shop database",
		Long: `shopctl runs the shop's schema migrations and seeds reference data.

The database is selected with the same environment variables as the server
(DB_DRIVER, DB_HOST, DB_SQLITE_PATH, ...); a .env file is read when present.`,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	return root
}

// withDB connects using the environment and closes the connection once fn returns.
func withDB(fn func(conn *gorm.DB) error) error {
	conn, err := db.Connect(config.Load().Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(conn)
}
