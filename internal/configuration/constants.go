package configuration

const AppName = "mfactl"

// VerificationCodeLength is the exact length of a TOTP proof-of-possession
// code. The input layer clips to this length and submission is gated on it.
const VerificationCodeLength = 6

const (
	// BackupCodeCount is the number of recovery codes issued per enrollment
	// or regeneration.
	BackupCodeCount = 10
	// BackupCodeGroupLength is the length of each half of a XXXXX-XXXXX code.
	BackupCodeGroupLength = 5
)

// EventsStatusChanged is the in-process topic lifecycle operations publish to
// after any server-side MFA mutation. The status view refetches on every
// message rather than inferring the new state locally.
const EventsStatusChanged = "mfa.status.changed"

// TOTPSecretSize is the emulator's generated secret size in bytes.
const TOTPSecretSize = 20

const (
	AudienceAccessToken = "app:*"
	AccessTokenExpiry   = 60 // minutes
)

// BackupCodeFilePattern is the export filename: subject, then epoch millis to
// avoid collisions between consecutive downloads.
const BackupCodeFilePattern = "mfa-backup-codes-%s-%d.txt"

// BackupCodeFileTimeFormat renders the "Generated:" header line.
const BackupCodeFileTimeFormat = "2006-01-02 15:04:05 MST"

var ConfigFileSearchPaths = []string{
	"./config.yaml",
	"~/.config/mfactl/config.yaml",
}
