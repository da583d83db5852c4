package cli

import (
	"errors"

	"console/internal/helpers"
	"console/internal/identity"

	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for an access token",
		Long: "Signs in against the configured identity endpoint and prints the " +
			"access token. Mostly useful against the built-in emulator; set the " +
			"printed token as MFACTL_API__TOKEN.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.API.URL == "" {
				return errors.New("api.url is not configured")
			}

			password, err := helpers.ReadPassword("Password: ")
			if err != nil {
				return err
			}

			client := identity.NewClient(a.config.API, "")
			token, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				logCommandError("login", err)
				return err
			}

			cmd.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
