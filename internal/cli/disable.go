package cli

import (
	apierrors "console/internal/errors"
	"console/internal/helpers"
	"console/internal/status"

	"github.com/spf13/cobra"
)

func newDisableCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn MFA off for the account",
		Long: "Disables MFA after an explicit confirmation and a fresh password " +
			"check. The enrolled authenticator and every outstanding backup " +
			"code stop working immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			confirmed, err := helpers.ConfirmPhrase(
				"This invalidates the enrolled authenticator and all backup codes.", "disable")
			if err != nil {
				return err
			}
			if !confirmed {
				cmd.Println("Aborted.")
				return nil
			}

			password, err := helpers.ReadPassword("Current password: ")
			if err != nil {
				return err
			}

			ops, publisher := a.newOperations(client)
			defer publisher.Close()

			opErr := ops.Disable(cmd.Context(), password)

			viewer := status.NewViewer(client)
			if opErr != nil {
				logCommandError("disable", opErr)
				if apierrors.Ambiguous(opErr) {
					// Unknown outcome: show what the server actually holds now.
					if current, refreshErr := viewer.Refresh(cmd.Context()); refreshErr == nil {
						cmd.Println(renderStatus(current))
					}
				}
				return opErr
			}

			current, err := viewer.Refresh(cmd.Context())
			if err != nil {
				logCommandError("disable", err)
				return err
			}
			cmd.Println(renderStatus(current))
			return nil
		},
	}
}
