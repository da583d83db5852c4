package enrollment

import (
	"context"
	"errors"
	"sync"
	"time"

	apierrors "console/internal/errors"
	"console/internal/identity"
	"console/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the enrollment dialog's protocol position. Transitions are guarded
// by the transition table in Session, never by timing.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingPassword State = "awaiting_password"
	StateAwaitingQrScan   State = "awaiting_qr_scan"
	StateAwaitingCode     State = "awaiting_code"
	StateCompleted        State = "completed"
)

// ErrStaleResponse marks a server response that arrived after its session
// attempt was cancelled. The response is discarded, never applied.
var ErrStaleResponse = errors.New("stale enrollment response discarded")

// ErrInvalidTransition is returned when an operation is attempted from a
// state that does not permit it.
var ErrInvalidTransition = errors.New("operation not permitted in current enrollment state")

// ErrRequestInFlight is returned when a second network operation is attempted
// while one is outstanding. At most one request per session is in flight.
var ErrRequestInFlight = errors.New("another request is already in flight")

// Session is one in-progress enrollment attempt. It exclusively owns the
// EnrollmentSecret issued at the provisioning step; the secret is wiped when
// the session ends for any reason and is never persisted or logged.
//
// Cancelling does not abort an already-sent HTTP request; instead every
// attempt carries a generation number, and a response whose generation no
// longer matches is dropped.
type Session struct {
	mu sync.Mutex

	id     uuid.UUID
	client identity.IClient

	state      State
	secret     models.EnrollmentSecret
	hasSecret  bool
	generation uint64
	inFlight   bool
	lastErr    error
}

func NewSession(client identity.IClient) *Session {
	return &Session{
		id:     uuid.New(),
		client: client,
		state:  StateIdle,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error recorded by the most recent failed step. Errors are
// re-entrant: the session stays in the state it failed from so the user can
// retry without losing QR/secret context.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Secret returns a copy of the session's provisioning material. Only valid
// between a successful enrollment start and the end of the session.
func (s *Session) Secret() (models.EnrollmentSecret, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSecret {
		return models.EnrollmentSecret{}, false
	}
	secret := s.secret
	secret.BackupCodes = append([]string(nil), s.secret.BackupCodes...)
	return secret, true
}

// Open starts a new attempt: Idle -> AwaitingPassword.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrInvalidTransition
	}
	s.state = StateAwaitingPassword
	s.lastErr = nil
	return nil
}

// SubmitPassword re-verifies the password and, on acceptance, captures the
// provisioning secret issued in the same response:
// AwaitingPassword -> AwaitingQrScan. The password is forwarded inside the
// single request and not retained here. An empty password is a local
// validation failure; no request is issued.
func (s *Session) SubmitPassword(ctx context.Context, password string) error {
	if password == "" {
		return s.recordLocalFailure(StateAwaitingPassword,
			apierrors.NewValidationError(apierrors.CodeEmptyPassword))
	}

	gen, err := s.beginRequest(StateAwaitingPassword)
	if err != nil {
		return err
	}

	secret, callErr := s.client.StartEnrollment(ctx, password)

	return s.endRequest(gen, callErr, func() {
		s.secret = secret
		s.hasSecret = true
		s.state = StateAwaitingQrScan
		zap.L().Info("Enrollment secret provisioned",
			zap.String("session_id", s.id.String()))
	})
}

// AcknowledgeScan is the purely local transition AwaitingQrScan ->
// AwaitingCode. No network call is made and the secret is untouched.
func (s *Session) AcknowledgeScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingQrScan {
		return ErrInvalidTransition
	}
	s.state = StateAwaitingCode
	s.lastErr = nil
	return nil
}

// Back returns from the code step to the QR step. The same secret is reused;
// nothing is re-requested.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingCode {
		return ErrInvalidTransition
	}
	s.state = StateAwaitingQrScan
	s.lastErr = nil
	return nil
}

// SubmitCode submits the proof-of-possession code: AwaitingCode -> Completed.
// On success it surfaces the backup codes captured at the provisioning step;
// they are never re-requested. On a rejected code the session stays in
// AwaitingCode and the user may retry without limit; the server owns rate
// limiting.
func (s *Session) SubmitCode(ctx context.Context, code string) (models.BackupCodeSet, error) {
	if validationErr := ValidateCode(code); validationErr != nil {
		return models.BackupCodeSet{}, s.recordLocalFailure(StateAwaitingCode, validationErr)
	}

	gen, err := s.beginRequest(StateAwaitingCode)
	if err != nil {
		return models.BackupCodeSet{}, err
	}

	callErr := s.client.VerifyEnrollment(ctx, code)

	var set models.BackupCodeSet
	err = s.endRequest(gen, callErr, func() {
		s.state = StateCompleted
		set = models.BackupCodeSet{
			Subject:     s.client.Subject(),
			GeneratedAt: time.Now(),
			Codes:       append([]string(nil), s.secret.BackupCodes...),
		}
		zap.L().Info("Enrollment completed",
			zap.String("session_id", s.id.String()))
	})
	if err != nil {
		return models.BackupCodeSet{}, err
	}
	return set, nil
}

// Cancel aborts the attempt from any non-terminal state. The in-memory
// secret is destroyed and any response still in flight becomes stale. An
// unverified secret left server-side is superseded by the next enrollment
// start.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateIdle {
		return
	}
	s.abandonLocked()
}

// Reset returns a completed session to Idle once the disclosure step has
// been dismissed.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return ErrInvalidTransition
	}
	s.abandonLocked()
	return nil
}

func (s *Session) abandonLocked() {
	s.secret.Wipe()
	s.hasSecret = false
	s.state = StateIdle
	s.lastErr = nil
	s.generation++
}

// recordLocalFailure notes a validation error without leaving the required
// state or touching the network.
func (s *Session) recordLocalFailure(required State, validationErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != required {
		return ErrInvalidTransition
	}
	s.lastErr = validationErr
	return validationErr
}

// beginRequest checks the transition guard and claims the single in-flight
// slot, returning the generation this attempt belongs to.
func (s *Session) beginRequest(required State) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != required {
		return 0, ErrInvalidTransition
	}
	if s.inFlight {
		return 0, ErrRequestInFlight
	}
	s.inFlight = true
	return s.generation, nil
}

// endRequest releases the in-flight slot and applies the outcome, unless the
// session was cancelled while the request was outstanding, in which case the
// response is discarded wholesale.
func (s *Session) endRequest(gen uint64, callErr error, applySuccess func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	if gen != s.generation {
		zap.L().Debug("Discarding response for abandoned enrollment attempt",
			zap.String("session_id", s.id.String()))
		return ErrStaleResponse
	}

	if callErr != nil {
		s.lastErr = callErr
		return callErr
	}

	s.lastErr = nil
	applySuccess()
	return nil
}
