package emulator

import (
	"sync"
	"time"

	"console/internal/configuration"
	apierrors "console/internal/errors"
	"console/internal/helpers"
	"console/internal/models"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

// pendingSecret is a provisioned-but-unverified enrollment. Only the most
// recently issued pending secret is recognized; starting a new enrollment
// supersedes any prior one. There is no expiry beyond supersession.
type pendingSecret struct {
	secret          string
	provisioningURI string
	backupCodes     []string
}

type account struct {
	id             uuid.UUID
	email          string
	hashedPassword string

	enabled     bool
	enrolledAt  *time.Time
	secret      string
	backupCodes []string
	pending     *pendingSecret
}

// Store holds emulator accounts in memory. All MFA state transitions happen
// under one lock, mirroring the transactional guarantees of a real identity
// service.
type Store struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*account
	byEmail map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[uuid.UUID]*account),
		byEmail: make(map[string]uuid.UUID),
	}
}

// CreateAccount registers an account with MFA disabled.
func (s *Store) CreateAccount(email string, password string) (uuid.UUID, error) {
	hash, err := helpers.CreateHash(password)
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.byEmail[email]; exists {
		// Re-seeding an existing account just rotates the password.
		s.byID[id].hashedPassword = hash
		return id, nil
	}

	acc := &account{
		id:             uuid.New(),
		email:          email,
		hashedPassword: hash,
	}
	s.byID[acc.id] = acc
	s.byEmail[email] = acc.id
	return acc.id, nil
}

// Authenticate resolves credentials to an account ID.
func (s *Store) Authenticate(email string, password string) (uuid.UUID, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byEmail[email]
	if !exists {
		return uuid.Nil, "", apierrors.NewAPIError(401, apierrors.CodeInvalidPassword)
	}
	acc := s.byID[id]
	if err := comparePassword(password, acc.hashedPassword); err != nil {
		return uuid.Nil, "", err
	}
	return acc.id, acc.email, nil
}

// Status reports the per-account MFA summary.
func (s *Store) Status(id uuid.UUID) (models.MFAStatusResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.findLocked(id)
	if err != nil {
		return models.MFAStatusResponse{}, err
	}
	return models.MFAStatusResponse{
		Enabled:    models.FlexBool(acc.enabled),
		EnrolledAt: acc.enrolledAt,
	}, nil
}

// StartEnrollment re-verifies the password and issues fresh provisioning
// material. The backup codes in the response are the only copy ever sent;
// the verify step does not return them again.
func (s *Store) StartEnrollment(id uuid.UUID, password string) (models.EnrollmentSecret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.findLocked(id)
	if err != nil {
		return models.EnrollmentSecret{}, err
	}
	if err = comparePassword(password, acc.hashedPassword); err != nil {
		return models.EnrollmentSecret{}, err
	}
	if acc.enabled {
		return models.EnrollmentSecret{}, apierrors.NewAPIError(409, apierrors.CodeMFAAlreadyEnabled)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      configuration.AppName,
		AccountName: acc.email,
		SecretSize:  configuration.TOTPSecretSize,
	})
	if err != nil {
		return models.EnrollmentSecret{}, apierrors.NewAPIError(500, apierrors.CodeServerError)
	}

	codes, err := helpers.GenerateBackupCodes()
	if err != nil {
		return models.EnrollmentSecret{}, apierrors.NewAPIError(500, apierrors.CodeServerError)
	}

	// Supersedes any earlier unverified secret.
	acc.pending = &pendingSecret{
		secret:          key.Secret(),
		provisioningURI: key.URL(),
		backupCodes:     codes,
	}

	return models.EnrollmentSecret{
		ProvisioningURI: key.URL(),
		RawSecret:       key.Secret(),
		BackupCodes:     append([]string(nil), codes...),
	}, nil
}

// VerifyEnrollment validates the proof-of-possession code and promotes the
// pending secret. Completion is idempotent: re-verifying an already enabled
// account with no pending secret succeeds without effect.
func (s *Store) VerifyEnrollment(id uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.findLocked(id)
	if err != nil {
		return err
	}
	if acc.pending == nil {
		if acc.enabled {
			return nil
		}
		return apierrors.NewAPIError(409, apierrors.CodeNoPendingEnrollment)
	}
	if !totp.Validate(code, acc.pending.secret) {
		return apierrors.NewAPIError(401, apierrors.CodeInvalidMFACode)
	}

	now := time.Now()
	acc.secret = acc.pending.secret
	acc.backupCodes = acc.pending.backupCodes
	acc.enabled = true
	acc.enrolledAt = &now
	acc.pending = nil
	return nil
}

// Disable invalidates the enrolled secret and all outstanding backup codes.
func (s *Store) Disable(id uuid.UUID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.findLocked(id)
	if err != nil {
		return err
	}
	if err = comparePassword(password, acc.hashedPassword); err != nil {
		return err
	}
	if !acc.enabled {
		return apierrors.NewAPIError(409, apierrors.CodeMFANotEnabled)
	}

	acc.enabled = false
	acc.enrolledAt = nil
	acc.secret = ""
	acc.backupCodes = nil
	acc.pending = nil
	return nil
}

// Regenerate replaces all outstanding backup codes. Every previously issued
// code stops working.
func (s *Store) Regenerate(id uuid.UUID, password string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	if err = comparePassword(password, acc.hashedPassword); err != nil {
		return nil, err
	}
	if !acc.enabled {
		return nil, apierrors.NewAPIError(409, apierrors.CodeMFANotEnabled)
	}

	codes, err := helpers.GenerateBackupCodes()
	if err != nil {
		return nil, apierrors.NewAPIError(500, apierrors.CodeServerError)
	}
	acc.backupCodes = codes
	return append([]string(nil), codes...), nil
}

// PendingSecret exposes the current pending TOTP secret for test fixtures
// that need to compute a valid code.
func (s *Store) PendingSecret(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.byID[id]
	if !exists || acc.pending == nil {
		return "", false
	}
	return acc.pending.secret, true
}

// OutstandingBackupCodes exposes the currently valid codes for tests.
func (s *Store) OutstandingBackupCodes(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, exists := s.byID[id]
	if !exists {
		return nil
	}
	return append([]string(nil), acc.backupCodes...)
}

// lookupEmail resolves an email to its account ID without checking
// credentials. Used when minting the startup admin token.
func (s *Store) lookupEmail(email string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.byEmail[email]
	return id, exists
}

func (s *Store) findLocked(id uuid.UUID) (*account, error) {
	acc, exists := s.byID[id]
	if !exists {
		return nil, apierrors.NewAPIError(404, apierrors.CodeAccountNotFound)
	}
	return acc, nil
}

func comparePassword(password string, hash string) error {
	if password == "" {
		return apierrors.NewAPIError(400, apierrors.CodeBadRequest)
	}
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return apierrors.NewAPIError(500, apierrors.CodeServerError)
	}
	if !match {
		return apierrors.NewAPIError(401, apierrors.CodeInvalidPassword)
	}
	return nil
}
