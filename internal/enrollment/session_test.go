package enrollment

import (
	"context"
	"sync"
	"testing"
	"time"

	apierrors "console/internal/errors"
	"console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Inline Mocks ---

type mockClient struct {
	mu          sync.Mutex
	startCalls  int
	verifyCalls int

	startErr  error
	verifyErr error
	secret    models.EnrollmentSecret

	// blockVerify, when non-nil, holds VerifyEnrollment until closed.
	blockVerify chan struct{}
}

func newMockClient() *mockClient {
	return &mockClient{
		secret: models.EnrollmentSecret{
			ProvisioningURI: "otpauth://totp/mfactl:admin@example.com?secret=ABCD",
			RawSecret:       "ABCD",
			BackupCodes:     []string{"AAAAA-BBBBB", "CCCCC-DDDDD"},
		},
	}
}

func (m *mockClient) GetStatus(_ context.Context) (models.MFAStatus, error) {
	return models.MFAStatus{}, nil
}

func (m *mockClient) StartEnrollment(_ context.Context, _ string) (models.EnrollmentSecret, error) {
	m.mu.Lock()
	m.startCalls++
	m.mu.Unlock()
	if m.startErr != nil {
		return models.EnrollmentSecret{}, m.startErr
	}
	secret := m.secret
	secret.BackupCodes = append([]string(nil), m.secret.BackupCodes...)
	return secret, nil
}

func (m *mockClient) VerifyEnrollment(_ context.Context, _ string) error {
	m.mu.Lock()
	m.verifyCalls++
	block := m.blockVerify
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	return m.verifyErr
}

func (m *mockClient) Disable(_ context.Context, _ string) error { return nil }

func (m *mockClient) RegenerateBackupCodes(_ context.Context, _ string) (models.BackupCodeSet, error) {
	return models.BackupCodeSet{}, nil
}

func (m *mockClient) Subject() string { return "admin@example.com" }

func (m *mockClient) starts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls
}

func (m *mockClient) verifies() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyCalls
}

// --- Tests ---

func advanceToCode(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Open())
	require.NoError(t, s.SubmitPassword(context.Background(), "hunter2hunter2"))
	require.NoError(t, s.AcknowledgeScan())
	require.Equal(t, StateAwaitingCode, s.State())
}

func TestSession_HappyPath(t *testing.T) {
	t.Run("should walk password, scan and code steps in order and surface the captured backup codes", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)

		require.Equal(t, StateIdle, s.State())
		require.NoError(t, s.Open())
		require.Equal(t, StateAwaitingPassword, s.State())

		require.NoError(t, s.SubmitPassword(context.Background(), "hunter2hunter2"))
		require.Equal(t, StateAwaitingQrScan, s.State())

		secret, ok := s.Secret()
		require.True(t, ok)
		assert.Equal(t, "ABCD", secret.RawSecret)

		require.NoError(t, s.AcknowledgeScan())
		require.Equal(t, StateAwaitingCode, s.State())

		set, err := s.SubmitCode(context.Background(), "123456")
		require.NoError(t, err)
		require.Equal(t, StateCompleted, s.State())

		// The codes come from the StartEnrollment response; verify never
		// returns them again.
		assert.Equal(t, []string{"AAAAA-BBBBB", "CCCCC-DDDDD"}, set.Codes)
		assert.Equal(t, "admin@example.com", set.Subject)
		assert.Equal(t, 1, client.starts())
		assert.Equal(t, 1, client.verifies())
	})

	t.Run("should refuse operations out of order", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)

		_, err := s.SubmitCode(context.Background(), "123456")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.ErrorIs(t, s.AcknowledgeScan(), ErrInvalidTransition)
		assert.ErrorIs(t, s.SubmitPassword(context.Background(), "x"), ErrInvalidTransition)
		assert.Zero(t, client.starts())
	})
}

func TestSession_PasswordStep(t *testing.T) {
	t.Run("should fail locally on empty password without issuing a request", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)
		require.NoError(t, s.Open())

		err := s.SubmitPassword(context.Background(), "")
		require.Error(t, err)
		assert.True(t, apierrors.IsValidation(err))
		assert.Equal(t, StateAwaitingPassword, s.State())
		assert.Zero(t, client.starts())
	})

	t.Run("should stay on the password step after a rejected password and allow retry", func(t *testing.T) {
		client := newMockClient()
		client.startErr = apierrors.NewAPIError(401, apierrors.CodeInvalidPassword)
		s := NewSession(client)
		require.NoError(t, s.Open())

		err := s.SubmitPassword(context.Background(), "wrong")
		require.Error(t, err)
		assert.True(t, apierrors.IsAuth(err))
		assert.Equal(t, StateAwaitingPassword, s.State())
		assert.Equal(t, err, s.Err())

		client.startErr = nil
		require.NoError(t, s.SubmitPassword(context.Background(), "right"))
		assert.Equal(t, StateAwaitingQrScan, s.State())
		assert.NoError(t, s.Err())
	})
}

func TestSession_BackNavigation(t *testing.T) {
	t.Run("should reuse the already issued secret when going back to the QR step", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)
		advanceToCode(t, s)

		require.NoError(t, s.Back())
		assert.Equal(t, StateAwaitingQrScan, s.State())

		secret, ok := s.Secret()
		require.True(t, ok)
		assert.Equal(t, "ABCD", secret.RawSecret)
		assert.Equal(t, 1, client.starts(), "going back must not re-provision")

		require.NoError(t, s.AcknowledgeScan())
		assert.Equal(t, StateAwaitingCode, s.State())
	})
}

func TestSession_CodeStep(t *testing.T) {
	t.Run("should reject a malformed code locally", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)
		advanceToCode(t, s)

		_, err := s.SubmitCode(context.Background(), "12345")
		require.Error(t, err)
		assert.True(t, apierrors.IsValidation(err))
		assert.Equal(t, StateAwaitingCode, s.State())
		assert.Zero(t, client.verifies())
	})

	t.Run("should keep the session on the code step after a rejected code", func(t *testing.T) {
		client := newMockClient()
		client.verifyErr = apierrors.NewAPIError(401, apierrors.CodeInvalidMFACode)
		s := NewSession(client)
		advanceToCode(t, s)

		_, err := s.SubmitCode(context.Background(), "000000")
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidCode(err))
		assert.Equal(t, StateAwaitingCode, s.State())

		// Retry with the correct code succeeds without a new secret.
		client.verifyErr = nil
		set, err := s.SubmitCode(context.Background(), "123456")
		require.NoError(t, err)
		assert.Len(t, set.Codes, 2)
		assert.Equal(t, 1, client.starts())
	})
}

func TestSession_Cancel(t *testing.T) {
	t.Run("should wipe the secret and return to idle from any non-terminal state", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)
		advanceToCode(t, s)

		s.Cancel()
		assert.Equal(t, StateIdle, s.State())
		_, ok := s.Secret()
		assert.False(t, ok)
	})

	t.Run("should be a no-op when idle", func(t *testing.T) {
		s := NewSession(newMockClient())
		s.Cancel()
		s.Cancel()
		assert.Equal(t, StateIdle, s.State())
	})

	t.Run("should discard a response that arrives after cancellation", func(t *testing.T) {
		client := newMockClient()
		client.blockVerify = make(chan struct{})
		s := NewSession(client)
		advanceToCode(t, s)

		done := make(chan error, 1)
		go func() {
			_, err := s.SubmitCode(context.Background(), "123456")
			done <- err
		}()

		// Wait for the request to be in flight, then abandon the attempt.
		require.Eventually(t, s.InFlight, time.Second, 5*time.Millisecond)
		s.Cancel()
		close(client.blockVerify)

		err := <-done
		assert.ErrorIs(t, err, ErrStaleResponse)
		assert.Equal(t, StateIdle, s.State())
		_, ok := s.Secret()
		assert.False(t, ok, "late success must not resurrect the attempt")
	})
}

func TestSession_SingleInFlightRequest(t *testing.T) {
	t.Run("should refuse a second submission while one is outstanding", func(t *testing.T) {
		client := newMockClient()
		client.blockVerify = make(chan struct{})
		s := NewSession(client)
		advanceToCode(t, s)

		done := make(chan error, 1)
		go func() {
			_, err := s.SubmitCode(context.Background(), "123456")
			done <- err
		}()
		require.Eventually(t, s.InFlight, time.Second, 5*time.Millisecond)

		_, err := s.SubmitCode(context.Background(), "654321")
		assert.ErrorIs(t, err, ErrRequestInFlight)

		close(client.blockVerify)
		require.NoError(t, <-done)
		assert.Equal(t, 1, client.verifies())
	})
}

func TestSession_Reset(t *testing.T) {
	t.Run("should return a completed session to idle and wipe the secret", func(t *testing.T) {
		client := newMockClient()
		s := NewSession(client)
		advanceToCode(t, s)
		_, err := s.SubmitCode(context.Background(), "123456")
		require.NoError(t, err)

		require.NoError(t, s.Reset())
		assert.Equal(t, StateIdle, s.State())
		_, ok := s.Secret()
		assert.False(t, ok)
	})

	t.Run("should refuse reset before completion", func(t *testing.T) {
		s := NewSession(newMockClient())
		require.NoError(t, s.Open())
		assert.ErrorIs(t, s.Reset(), ErrInvalidTransition)
	})
}
