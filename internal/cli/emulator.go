package cli

import (
	"fmt"

	"console/internal/configuration"
	"console/internal/emulator"

	"github.com/spf13/cobra"
)

func newEmulatorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "emulator",
		Short: "Run the in-memory identity service emulator",
		Long: "Serves the identity service wire contract from memory for local " +
			"development: login, MFA status, enrollment, disable, and backup " +
			"code regeneration. Nothing is persisted; restarting wipes all " +
			"accounts and secrets.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configuration.ValidateEmulator(a.config.Emulator); err != nil {
				return fmt.Errorf("emulator configuration incomplete: %w", err)
			}

			server, err := emulator.NewServer(a.config.Emulator)
			if err != nil {
				return err
			}
			return server.Start()
		},
	}
}
