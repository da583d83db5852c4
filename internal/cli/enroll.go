package cli

import (
	"fmt"

	"console/internal/configuration"
	"console/internal/messaging"
	"console/internal/status"
	"console/internal/tui"

	"github.com/spf13/cobra"
)

func newEnrollCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll",
		Short: "Enroll an authenticator app (interactive)",
		Long: "Walks through MFA enrollment: password re-verification, scanning " +
			"the provisioning QR payload, and verifying a code from the " +
			"authenticator. Backup codes are shown exactly once at the end.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			viewer := status.NewViewer(client)
			current, err := viewer.Refresh(cmd.Context())
			if err != nil {
				logCommandError("enroll", err)
				return err
			}
			if current.Enabled {
				return fmt.Errorf("MFA is already enabled; disable it first to re-enroll")
			}

			channel := messaging.NewMemoryChannel()
			subscriber := messaging.NewMemorySubscriber(channel, configuration.EventsStatusChanged)
			viewer.Watch(cmd.Context(), subscriber)

			err = tui.RunEnrollment(tui.Options{
				Client:          client,
				Publisher:       messaging.NewMemoryPublisher(channel, configuration.EventsStatusChanged),
				ExportDirectory: a.config.Export.Directory,
			})
			if err != nil {
				logCommandError("enroll", err)
				return err
			}

			// The wizard may have completed, been cancelled, or failed
			// ambiguously; only the server knows which. Refetch and show it.
			current, err = viewer.Refresh(cmd.Context())
			if err != nil {
				logCommandError("enroll", err)
				return err
			}
			cmd.Println(renderStatus(current))
			return nil
		},
	}
}
