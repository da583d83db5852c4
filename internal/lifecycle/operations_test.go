package lifecycle

import (
	"context"
	"testing"
	"time"

	apierrors "console/internal/errors"
	"console/internal/models"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Inline Mocks ---

type mockClient struct {
	disableErr    error
	regenerateErr error
	disableCalls  int
}

func (m *mockClient) GetStatus(_ context.Context) (models.MFAStatus, error) {
	return models.MFAStatus{}, nil
}

func (m *mockClient) StartEnrollment(_ context.Context, _ string) (models.EnrollmentSecret, error) {
	return models.EnrollmentSecret{}, nil
}

func (m *mockClient) VerifyEnrollment(_ context.Context, _ string) error { return nil }

func (m *mockClient) Disable(_ context.Context, _ string) error {
	m.disableCalls++
	return m.disableErr
}

func (m *mockClient) RegenerateBackupCodes(_ context.Context, _ string) (models.BackupCodeSet, error) {
	if m.regenerateErr != nil {
		return models.BackupCodeSet{}, m.regenerateErr
	}
	return models.BackupCodeSet{
		Subject:     m.Subject(),
		GeneratedAt: time.Now(),
		Codes:       []string{"AAAAA-BBBBB"},
	}, nil
}

func (m *mockClient) Subject() string { return "admin@example.com" }

type capturePublisher struct {
	published []*message.Message
}

func (p *capturePublisher) Publish(messages ...*message.Message) error {
	p.published = append(p.published, messages...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

// --- Tests ---

func TestDisable(t *testing.T) {
	t.Run("should publish a status change after a successful disable", func(t *testing.T) {
		client := &mockClient{}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		require.NoError(t, ops.Disable(context.Background(), "hunter2hunter2"))
		require.Len(t, pub.published, 1)
		assert.Equal(t, "admin@example.com", string(pub.published[0].Payload))
	})

	t.Run("should fail locally on an empty password without calling the service", func(t *testing.T) {
		client := &mockClient{}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		err := ops.Disable(context.Background(), "")
		assert.True(t, apierrors.IsValidation(err))
		assert.Zero(t, client.disableCalls)
		assert.Empty(t, pub.published)
	})

	t.Run("should not publish when the password is rejected", func(t *testing.T) {
		client := &mockClient{disableErr: apierrors.NewAPIError(401, apierrors.CodeInvalidPassword)}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		err := ops.Disable(context.Background(), "wrong")
		assert.True(t, apierrors.IsAuth(err))
		assert.Empty(t, pub.published, "a clean rejection changes nothing server-side")
	})

	t.Run("should publish after an ambiguous failure so views refetch", func(t *testing.T) {
		client := &mockClient{disableErr: apierrors.NewNetworkError(context.DeadlineExceeded)}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		err := ops.Disable(context.Background(), "hunter2hunter2")
		assert.True(t, apierrors.Ambiguous(err))
		assert.Len(t, pub.published, 1, "outcome unknown: views must re-query")
	})
}

func TestRegenerate(t *testing.T) {
	t.Run("should return the fresh set and publish a status change", func(t *testing.T) {
		client := &mockClient{}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		set, err := ops.Regenerate(context.Background(), "hunter2hunter2")
		require.NoError(t, err)
		assert.Equal(t, []string{"AAAAA-BBBBB"}, set.Codes)
		assert.Len(t, pub.published, 1)
	})

	t.Run("should not publish when the password is rejected", func(t *testing.T) {
		client := &mockClient{regenerateErr: apierrors.NewAPIError(401, apierrors.CodeInvalidPassword)}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		_, err := ops.Regenerate(context.Background(), "wrong")
		assert.True(t, apierrors.IsAuth(err))
		assert.Empty(t, pub.published)
	})

	t.Run("should publish after a server error since the old codes may already be dead", func(t *testing.T) {
		client := &mockClient{regenerateErr: apierrors.NewAPIError(500, apierrors.CodeServerError)}
		pub := &capturePublisher{}
		ops := Operations{Client: client, Publisher: pub}

		_, err := ops.Regenerate(context.Background(), "hunter2hunter2")
		assert.True(t, apierrors.Ambiguous(err))
		assert.Len(t, pub.published, 1)
	})

	t.Run("should work without a publisher", func(t *testing.T) {
		ops := Operations{Client: &mockClient{}}
		_, err := ops.Regenerate(context.Background(), "hunter2hunter2")
		assert.NoError(t, err)
	})
}
