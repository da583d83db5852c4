package identity

import (
	"context"
	"fmt"
	"time"

	"console/internal/configuration"
	apierrors "console/internal/errors"
	"console/internal/helpers"
	"console/internal/models"

	"github.com/go-resty/resty/v2"
)

// Client talks to the identity/MFA service. AccountID selects the admin-side
// paths; when empty the client acts on the caller's own account through the
// self-service paths. The wire contract is identical either way.
type Client struct {
	http      *resty.Client
	accountID string
	subject   string
}

func NewClient(config models.APIConfiguration, accountID string) *Client {
	httpClient := resty.New().
		SetBaseURL(config.URL).
		SetAuthToken(config.Token).
		SetTimeout(time.Duration(config.TimeoutSeconds) * time.Second).
		SetHeader("User-Agent", configuration.AppName)

	subject := accountID
	if subject == "" {
		subject = helpers.TokenSubject(config.Token)
	}

	return &Client{
		http:      httpClient,
		accountID: accountID,
		subject:   subject,
	}
}

func (c *Client) Subject() string {
	return c.subject
}

func (c *Client) mfaPath(suffix string) string {
	if c.accountID == "" {
		return "/api/v1/self/mfa" + suffix
	}
	return fmt.Sprintf("/api/v1/accounts/%s/mfa%s", c.accountID, suffix)
}

func (c *Client) GetStatus(ctx context.Context) (models.MFAStatus, error) {
	var out models.MFAStatusResponse
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errBody).
		Get(c.mfaPath(""))
	if mapped := mapError(resp, errBody, err); mapped != nil {
		return models.MFAStatus{}, mapped
	}

	return out.ToStatus(), nil
}

func (c *Client) StartEnrollment(ctx context.Context, password string) (models.EnrollmentSecret, error) {
	var out models.EnrollmentSecret
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.StartEnrollmentBody{Password: password}).
		SetResult(&out).
		SetError(&errBody).
		Post(c.mfaPath("/enrollment"))
	if mapped := mapError(resp, errBody, err); mapped != nil {
		return models.EnrollmentSecret{}, mapped
	}

	return out, nil
}

func (c *Client) VerifyEnrollment(ctx context.Context, code string) error {
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.VerifyEnrollmentBody{Code: code}).
		SetError(&errBody).
		Post(c.mfaPath("/enrollment/verify"))
	return mapError(resp, errBody, err)
}

func (c *Client) Disable(ctx context.Context, password string) error {
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.DisableBody{Password: password}).
		SetError(&errBody).
		Post(c.mfaPath("/disable"))
	return mapError(resp, errBody, err)
}

func (c *Client) RegenerateBackupCodes(ctx context.Context, password string) (models.BackupCodeSet, error) {
	var out models.RegenerateResponse
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.RegenerateBody{Password: password}).
		SetResult(&out).
		SetError(&errBody).
		Post(c.mfaPath("/backup-codes"))
	if mapped := mapError(resp, errBody, err); mapped != nil {
		return models.BackupCodeSet{}, mapped
	}

	return models.BackupCodeSet{
		Subject:     c.subject,
		GeneratedAt: time.Now(),
		Codes:       out.BackupCodes,
	}, nil
}

// Login exchanges credentials for an access token. Used against the emulator
// in development and tests; production tokens come from the console's normal
// sign-in flow.
func (c *Client) Login(ctx context.Context, email string, password string) (string, error) {
	var out models.AuthLoginResponse
	var errBody models.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(models.AuthLoginBody{Email: email, Password: password}).
		SetResult(&out).
		SetError(&errBody).
		Post("/api/v1/auth/login")
	if mapped := mapError(resp, errBody, err); mapped != nil {
		return "", mapped
	}

	return out.AccessToken, nil
}

// mapError folds transport errors and error responses into the client error
// taxonomy. Transport failures are ambiguous: the mutation may or may not
// have been applied server-side.
func mapError(resp *resty.Response, errBody models.ErrorResponse, err error) error {
	if err != nil {
		return apierrors.NewNetworkError(err)
	}
	if resp == nil {
		return apierrors.NewNetworkError(fmt.Errorf("no response"))
	}
	if !resp.IsError() {
		return nil
	}

	status := resp.StatusCode()
	code := errBody.FirstCode()
	if code == "" {
		if status >= 500 {
			code = apierrors.CodeServerError
		} else {
			code = apierrors.CodeBadRequest
		}
	}
	return apierrors.NewAPIError(status, code)
}
