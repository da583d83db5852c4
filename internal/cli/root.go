package cli

import (
	"errors"
	"fmt"

	"console/internal/configuration"
	"console/internal/identity"
	"console/internal/lifecycle"
	"console/internal/messaging"
	"console/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	accountID string

	config models.Configuration
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           configuration.AppName,
		Short:         "Manage multi-factor authentication for an account",
		Long: "mfactl is the admin console for MFA enrollment and lifecycle: " +
			"enroll an authenticator, inspect status, regenerate backup codes, " +
			"and disable MFA, against the identity service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.config = configuration.Read()
			if a.accountID != "" {
				a.config.App.AccountID = a.accountID
			}
			initLogger(a.config.App)
		},
	}

	cmd.PersistentFlags().StringVar(&a.accountID, "account", "",
		"account ID to act on (default: the token's own account)")

	cmd.AddCommand(
		newStatusCommand(a),
		newEnrollCommand(a),
		newDisableCommand(a),
		newRegenerateCommand(a),
		newLoginCommand(a),
		newEmulatorCommand(a),
	)
	return cmd
}

// newClient builds the identity client, failing up front when the config
// lacks the pieces every service-facing command needs.
func (a *app) newClient() (*identity.Client, error) {
	if a.config.API.URL == "" {
		return nil, errors.New("api.url is not configured (set MFACTL_API__URL or the config file)")
	}
	if a.config.API.Token == "" {
		return nil, errors.New("api.token is not configured; run `mfactl login` against the emulator or supply a service token")
	}
	return identity.NewClient(a.config.API, a.config.App.AccountID), nil
}

// newOperations wires the lifecycle operations to a fresh in-memory
// status-changed channel. The returned publisher is owned by the bus and
// closed with it.
func (a *app) newOperations(client *identity.Client) (lifecycle.Operations, messaging.IPublisher) {
	channel := messaging.NewMemoryChannel()
	publisher := messaging.NewMemoryPublisher(channel, configuration.EventsStatusChanged)
	return lifecycle.Operations{Client: client, Publisher: publisher}, publisher
}

func renderStatus(status models.MFAStatus) string {
	if !status.Enabled {
		return "MFA: disabled"
	}
	if status.EnrolledAt == nil {
		return "MFA: enabled"
	}
	return fmt.Sprintf("MFA: enabled (since %s)",
		status.EnrolledAt.Format("2006-01-02 15:04 MST"))
}

func logCommandError(command string, err error) {
	zap.L().Error("Command failed", zap.String("command", command), zap.Error(err))
}
