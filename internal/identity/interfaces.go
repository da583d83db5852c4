package identity

import (
	"context"

	"console/internal/models"
)

// IClient is the identity service boundary. Implementations never retain
// passwords beyond a single request and never fetch backup codes outside of
// StartEnrollment / RegenerateBackupCodes responses.
type IClient interface {
	// GetStatus is idempotent and side-effect free.
	GetStatus(ctx context.Context) (models.MFAStatus, error)
	// StartEnrollment re-verifies the password and provisions a pending
	// secret. The response is the only time backup codes for this
	// enrollment are ever transmitted.
	StartEnrollment(ctx context.Context, password string) (models.EnrollmentSecret, error)
	// VerifyEnrollment submits the proof-of-possession code.
	VerifyEnrollment(ctx context.Context, code string) error
	// Disable turns MFA off, invalidating the enrolled secret and all
	// outstanding backup codes.
	Disable(ctx context.Context, password string) error
	// RegenerateBackupCodes replaces all outstanding codes with a new set.
	RegenerateBackupCodes(ctx context.Context, password string) (models.BackupCodeSet, error)
	// Subject is the acting principal's identity for display and export
	// headers.
	Subject() string
}
