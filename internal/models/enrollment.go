package models

import "time"

// EnrollmentSecret is the sensitive material issued by a successful
// enrollment start. It exists only inside the active enrollment session,
// is never written to durable storage and never logged. The backup codes
// must be retained here because the later verify call does not return them
// again.
type EnrollmentSecret struct {
	ProvisioningURI string   `json:"provisioning_uri"`
	RawSecret       string   `json:"secret"`
	BackupCodes     []string `json:"backup_codes"`
}

// Wipe overwrites the secret material in place. Best effort: earlier copies
// handed out to callers are their responsibility.
func (s *EnrollmentSecret) Wipe() {
	s.ProvisioningURI = ""
	s.RawSecret = ""
	for i := range s.BackupCodes {
		s.BackupCodes[i] = ""
	}
	s.BackupCodes = nil
}

// BackupCodeSet is the display-only projection handed to the disclosure
// component. Once the disclosure is dismissed the client holds no further
// reference and the server does not allow a re-fetch.
type BackupCodeSet struct {
	Subject     string
	GeneratedAt time.Time
	Codes       []string
}

// StartEnrollmentBody carries the freshly re-verified password. The password
// lives only for the duration of this single request.
type StartEnrollmentBody struct {
	Password string `json:"password" validate:"required,max=72"`
}

type VerifyEnrollmentBody struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type DisableBody struct {
	Password string `json:"password" validate:"required,max=72"`
}

type RegenerateBody struct {
	Password string `json:"password" validate:"required,max=72"`
}

type RegenerateResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

// ErrorResponse is the identity service's error envelope.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

func (r ErrorResponse) FirstCode() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}
