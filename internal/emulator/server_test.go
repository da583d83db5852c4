package emulator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"console/internal/enrollment"
	apierrors "console/internal/errors"
	"console/internal/identity"
	"console/internal/models"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "emulator-test-secret-0123456789"

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	server, err := NewServer(models.EmulatorConfiguration{
		JWTSecret:     testJWTSecret,
		AdminEmail:    "admin@example.com",
		AdminPassword: testPassword,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return server, ts
}

func loginTestClient(t *testing.T, ts *httptest.Server) *identity.Client {
	t.Helper()
	anon := identity.NewClient(models.APIConfiguration{
		URL:            ts.URL,
		Token:          "unused",
		TimeoutSeconds: 5,
	}, "")

	token, err := anon.Login(context.Background(), "admin@example.com", testPassword)
	require.NoError(t, err)

	return identity.NewClient(models.APIConfiguration{
		URL:            ts.URL,
		Token:          token,
		TimeoutSeconds: 5,
	}, "")
}

func TestServerLogin(t *testing.T) {
	t.Run("should exchange seeded admin credentials for a usable token", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := loginTestClient(t, ts)

		status, err := client.GetStatus(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Enabled)
		assert.Equal(t, "admin@example.com", client.Subject())
	})

	t.Run("should reject bad credentials", func(t *testing.T) {
		_, ts := newTestServer(t)
		anon := identity.NewClient(models.APIConfiguration{
			URL: ts.URL, Token: "unused", TimeoutSeconds: 5,
		}, "")

		_, err := anon.Login(context.Background(), "admin@example.com", "wrong")
		assert.True(t, apierrors.IsAuth(err))
	})
}

func TestServerAuthentication(t *testing.T) {
	t.Run("should refuse MFA endpoints without a valid bearer token", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := identity.NewClient(models.APIConfiguration{
			URL: ts.URL, Token: "not-a-jwt", TimeoutSeconds: 5,
		}, "")

		_, err := client.GetStatus(context.Background())
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, apierrors.CodeInvalidToken, apiErr.Code)
	})

	t.Run("should 404 an unknown account on the admin path", func(t *testing.T) {
		_, ts := newTestServer(t)

		// Reuse the admin token against a random account ID.
		adminClient := identity.NewClient(models.APIConfiguration{
			URL:            ts.URL,
			Token:          tokenOf(t, ts),
			TimeoutSeconds: 5,
		}, "87b5f0e5-2ad7-4f0c-9e6c-5a2a1f2a3b4c")

		_, err := adminClient.GetStatus(context.Background())
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
	})
}

func tokenOf(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	anon := identity.NewClient(models.APIConfiguration{
		URL: ts.URL, Token: "unused", TimeoutSeconds: 5,
	}, "")
	token, err := anon.Login(context.Background(), "admin@example.com", testPassword)
	require.NoError(t, err)
	return token
}

func TestServerEnrollmentFlow(t *testing.T) {
	t.Run("should drive a full enrollment session against the wire contract", func(t *testing.T) {
		server, ts := newTestServer(t)
		client := loginTestClient(t, ts)

		session := enrollment.NewSession(client)
		require.NoError(t, session.Open())
		require.NoError(t, session.SubmitPassword(context.Background(), testPassword))

		secret, ok := session.Secret()
		require.True(t, ok)
		assert.Contains(t, secret.ProvisioningURI, "otpauth://totp/")
		assert.Len(t, secret.BackupCodes, 10)

		require.NoError(t, session.AcknowledgeScan())

		code, err := totp.GenerateCode(secret.RawSecret, time.Now())
		require.NoError(t, err)

		set, err := session.SubmitCode(context.Background(), code)
		require.NoError(t, err)
		assert.Equal(t, secret.BackupCodes, set.Codes)
		assert.Equal(t, "admin@example.com", set.Subject)

		status, err := client.GetStatus(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Enabled)
		require.NotNil(t, status.EnrolledAt)

		id, exists := server.Store.lookupEmail("admin@example.com")
		require.True(t, exists)
		assert.Equal(t, set.Codes, server.Store.OutstandingBackupCodes(id))
	})

	t.Run("should reject a wrong code over the wire and allow a retry", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := loginTestClient(t, ts)

		session := enrollment.NewSession(client)
		require.NoError(t, session.Open())
		require.NoError(t, session.SubmitPassword(context.Background(), testPassword))
		require.NoError(t, session.AcknowledgeScan())

		_, err := session.SubmitCode(context.Background(), "000001")
		require.Error(t, err)
		assert.True(t, apierrors.IsInvalidCode(err))
		assert.Equal(t, enrollment.StateAwaitingCode, session.State())

		secret, ok := session.Secret()
		require.True(t, ok)
		code, err := totp.GenerateCode(secret.RawSecret, time.Now())
		require.NoError(t, err)
		_, err = session.SubmitCode(context.Background(), code)
		require.NoError(t, err)
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := loginTestClient(t, ts)

		err := client.VerifyEnrollment(context.Background(), "not-digits")
		var apiErr *apierrors.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})
}

func TestServerLifecycle(t *testing.T) {
	enableOverWire := func(t *testing.T, client *identity.Client) {
		t.Helper()
		secret, err := client.StartEnrollment(context.Background(), testPassword)
		require.NoError(t, err)
		code, err := totp.GenerateCode(secret.RawSecret, time.Now())
		require.NoError(t, err)
		require.NoError(t, client.VerifyEnrollment(context.Background(), code))
	}

	t.Run("should disable over the wire", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := loginTestClient(t, ts)
		enableOverWire(t, client)

		require.NoError(t, client.Disable(context.Background(), testPassword))

		status, err := client.GetStatus(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Enabled)
	})

	t.Run("should regenerate codes over the wire", func(t *testing.T) {
		server, ts := newTestServer(t)
		client := loginTestClient(t, ts)
		enableOverWire(t, client)

		set, err := client.RegenerateBackupCodes(context.Background(), testPassword)
		require.NoError(t, err)
		assert.Len(t, set.Codes, 10)

		id, exists := server.Store.lookupEmail("admin@example.com")
		require.True(t, exists)
		assert.Equal(t, set.Codes, server.Store.OutstandingBackupCodes(id))
	})

	t.Run("should refuse lifecycle mutations with a wrong password", func(t *testing.T) {
		_, ts := newTestServer(t)
		client := loginTestClient(t, ts)
		enableOverWire(t, client)

		err := client.Disable(context.Background(), "wrong")
		assert.True(t, apierrors.IsAuth(err))
		_, err = client.RegenerateBackupCodes(context.Background(), "wrong")
		assert.True(t, apierrors.IsAuth(err))
	})
}
