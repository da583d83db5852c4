package lifecycle

import (
	"context"

	"console/internal/configuration"
	apierrors "console/internal/errors"
	"console/internal/identity"
	"console/internal/messaging"
	"console/internal/models"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Operations are the non-enrollment MFA mutations. Every invocation takes a
// freshly prompted password: verification is never cached or reused across
// operations. After any successful mutation a status-changed event is
// published so every view refetches instead of inferring the new state.
type Operations struct {
	Client    identity.IClient
	Publisher messaging.IPublisher
}

// requirePassword is the shared credential re-verification gate: an empty
// password fails locally and no request is issued.
func requirePassword(password string) error {
	if password == "" {
		return apierrors.NewValidationError(apierrors.CodeEmptyPassword)
	}
	return nil
}

// Disable turns MFA off. On success the enrolled secret and all outstanding
// backup codes are invalid server-side; callers must close any open MFA
// dialogs and refresh so no stale "enabled" state stays on screen. On
// AuthError nothing changes, locally or remotely.
func (o Operations) Disable(ctx context.Context, password string) error {
	if err := requirePassword(password); err != nil {
		return err
	}

	if err := o.Client.Disable(ctx, password); err != nil {
		if apierrors.Ambiguous(err) {
			// Outcome unknown: force every view to re-query.
			o.publishChanged()
		}
		return err
	}

	zap.L().Info("MFA disabled", zap.String("subject", o.Client.Subject()))
	o.publishChanged()
	return nil
}

// Regenerate replaces all outstanding backup codes with a brand-new set,
// which the caller routes to the same disclosure component as initial
// enrollment output. The caller must collect an explicit confirmation before
// prompting for the password; this operation destroys every previously
// issued code even though MFA stays enabled.
func (o Operations) Regenerate(ctx context.Context, password string) (models.BackupCodeSet, error) {
	if err := requirePassword(password); err != nil {
		return models.BackupCodeSet{}, err
	}

	set, err := o.Client.RegenerateBackupCodes(ctx, password)
	if err != nil {
		if apierrors.Ambiguous(err) {
			o.publishChanged()
		}
		return models.BackupCodeSet{}, err
	}

	zap.L().Info("Backup codes regenerated",
		zap.String("subject", o.Client.Subject()),
		zap.Int("count", len(set.Codes)))
	o.publishChanged()
	return set, nil
}

func (o Operations) publishChanged() {
	PublishStatusChanged(o.Publisher, o.Client.Subject())
}

// PublishStatusChanged notifies every status view that server-side MFA state
// may have moved. A nil publisher is a no-op so callers without a bus still
// work.
func PublishStatusChanged(publisher messaging.IPublisher, subject string) {
	if publisher == nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), []byte(subject))
	if err := publisher.Publish(msg); err != nil {
		zap.L().Warn("Failed to publish status change event",
			zap.String("topic", configuration.EventsStatusChanged),
			zap.Error(err))
	}
}
