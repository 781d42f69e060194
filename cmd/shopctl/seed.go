package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/diewo77/shop-api/internal/db"
)

const (
	adminEmailFlag    = "admin-email"
	adminPasswordFlag = "admin-password"
)

func newSeedCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		adminEmailFlag: &cobraflags.StringFlag{
			Name:  adminEmailFlag,
			Value: "",
			Usage: "Create or promote this user to ROLE_ADMIN",
		},
		adminPasswordFlag: &cobraflags.StringFlag{
			Name:  adminPasswordFlag,
			Value: "",
			Usage: "Password for a newly created admin",
		},
	}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert reference product types and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := flags[adminEmailFlag].GetString()
			password := flags[adminPasswordFlag].GetString()
			return withDB(func(conn *gorm.DB) error {
				if err := db.Seed(conn); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reference data seeded")
				if email == "" {
					return nil
				}
				u, err := db.EnsureAdmin(conn, email, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s (id %d) ready\n", u.Email, u.ID)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
