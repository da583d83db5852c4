package cli

import (
	"console/internal/disclosure"
	apierrors "console/internal/errors"
	"console/internal/helpers"
	"console/internal/status"
	"console/internal/tui"

	"github.com/spf13/cobra"
)

func newRegenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Replace all backup codes with a new set",
		Long: "Issues a fresh set of backup codes after an explicit confirmation " +
			"and a fresh password check. Every previously issued code stops " +
			"working, even though MFA stays enabled. The new codes are shown " +
			"exactly once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			confirmed, err := helpers.ConfirmPhrase(
				"This invalidates every previously issued backup code.", "regenerate")
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

			set, opErr := ops.Regenerate(cmd.Context(), password)
			if opErr != nil {
				logCommandError("regenerate", opErr)
				if apierrors.Ambiguous(opErr) {
					// The old codes may already be dead and the new set lost in
					// transit. Surface the server's view before bailing out.
					viewer := status.NewViewer(client)
					if current, refreshErr := viewer.Refresh(cmd.Context()); refreshErr == nil {
						cmd.Println(renderStatus(current))
					}
				}
				return opErr
			}

			// Regenerated codes are freely dismissible: the account already
			// holds a working authenticator.
			return tui.RunDisclosure(disclosure.New(set, false), a.config.Export.Directory)
		},
	}
}
