package models

type Configuration struct {
	App      AppConfiguration      `mapstructure:"app"      validate:"required"`
	API      APIConfiguration      `mapstructure:"api"`
	Export   ExportConfiguration   `mapstructure:"export"   validate:"required"`
	Emulator EmulatorConfiguration `mapstructure:"emulator"`
}

type AppConfiguration struct {
	// AccountID selects the account the console acts on. Empty means the
	// caller's own account (self-service paths).
	AccountID string `mapstructure:"account_id"      validate:"omitempty,uuid4"`
	LogLevel  string `mapstructure:"log_level"       validate:"oneof=debug info warn error fatal panic"`
	// LogFile receives all console logging. The terminal itself belongs to
	// the interactive dialogs while they are open.
	LogFile       string `mapstructure:"log_file"        validate:"required"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" validate:"gte=1,lte=500"`
	LogMaxBackups int    `mapstructure:"log_max_backups" validate:"gte=0,lte=50"`
}

// APIConfiguration is validated lazily: only the commands that actually talk
// to the identity service require URL and Token, so `mfactl emulator` can run
// from a bare config.
type APIConfiguration struct {
	URL string `mapstructure:"url" validate:"omitempty,http_url"`
	// Token is the bearer token of the acting principal. MFA operations
	// additionally re-verify the password per request; the token alone is
	// never sufficient for a state change.
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=1,lte=120"`
}

type ExportConfiguration struct {
	// Directory receives downloaded backup-code files.
	Directory string `mapstructure:"directory" validate:"required"`
}

// EmulatorConfiguration configures the built-in identity service emulator
// (`mfactl emulator`). Validated separately when the emulator command runs.
type EmulatorConfiguration struct {
	Port          int    `mapstructure:"port"           validate:"omitempty,gte=80,lte=65535"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	AdminEmail    string `mapstructure:"admin_email"    validate:"omitempty,email"`
	AdminPassword string `mapstructure:"admin_password"`
}
