package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Anereges/AITB-Employee-Management-System/internal/auth"
	"github.com/Anereges/AITB-Employee-Management-System/internal/database"
)

const adminPasswordEnv = "EMS_ADMIN_PASSWORD"

func newCreateAdminCmd() *cobra.Command {
	var input auth.NewIdentity

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active administrator account.",
		Long: `Create an active administrator account directly in the database.

The password is read from ` + adminPasswordEnv + `. When it is unset a temporary password is
generated, printed once, and must be changed at first login.`,
		Example: "emsctl create-admin --name 'Abebe Kebede' --email abebe@aitb.et --username abebe --phone 0911223344",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := environment()
			if err != nil {
				return err
			}
			defer log.Sync()

			manager, err := database.NewManager(&cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer manager.Close()

			store := auth.NewStore(&cfg.Auth, auth.NewRepository(manager.DB()))
			issuer, err := auth.NewTokenIssuer(&cfg.Auth)
			if err != nil {
				return err
			}
			service := auth.NewService(&cfg.Auth, log, store, issuer, nil, nil)

			input.Role = string(auth.RoleAdmin)
			input.Password = os.Getenv(adminPasswordEnv)
			created, err := service.CreateByAdmin(cmd.Context(), input)
			if err != nil {
				return err
			}

			cmd.Printf("Created admin %s (%s)\n", created.Identity.Username, created.Identity.ID)
			if created.TemporaryPassword != "" {
				cmd.Printf("Temporary password: %s\n", created.TemporaryPassword)
				cmd.Println("It must be changed at first login.")
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input.FullName, "name", "", "full name")
	flags.StringVar(&input.Email, "email", "", "email address")
	flags.StringVar(&input.Username, "username", "", "login username")
	flags.StringVar(&input.Phone, "phone", "", "phone number, 10-15 digits")
	for _, name := range []string{"name", "email", "username", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
