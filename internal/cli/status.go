package cli

import (
	"console/internal/status"

	"github.com/spf13/cobra"
)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current MFA status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}

			viewer := status.NewViewer(client)
			current, err := viewer.Refresh(cmd.Context())
			if err != nil {
				logCommandError("status", err)
				return err
			}

			cmd.Println(renderStatus(current))
			return nil
		},
	}
}
