package configuration

import (
	"os"
	"path/filepath"
	"strings"

	"console/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

func loadDefaults(k *koanf.Koanf) {
	defaults := map[string]interface{}{
		"app.log_level":       "info",
		"app.log_file":        filepath.Join(os.TempDir(), "mfactl.log"),
		"app.log_max_size_mb": 10,
		"app.log_max_backups": 3,

		"api.timeout_seconds": 10,

		"export.directory": ".",

		"emulator.port": 8080,
	}

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		zap.L().Fatal("Failed to load default configuration", zap.Error(err))
	}
}

func readFileConfig(k *koanf.Koanf) {
	configFilePath := os.Getenv("CONFIG_FILE_PATH")
	var filePath string
	if configFilePath == "" {
		for _, path := range ConfigFileSearchPaths {
			path = expandHome(path)
			if _, err := os.Stat(path); err == nil {
				filePath = path
				break
			}
		}
	} else {
		filePath = configFilePath
	}

	if filePath != "" {
		err := k.Load(file.Provider(filePath), yaml.Parser())
		if err != nil {
			zap.L().
				Fatal("Fatal error loading config file", zap.String("path", filePath), zap.Error(err))
		}
		zap.L().Info("Read configuration from file " + filePath)
	} else {
		zap.L().Warn("No configuration file found")
	}
}

func readEnvVars(k *koanf.Koanf) {
	err := k.Load(env.Provider("MFACTL_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MFACTL_"))
		return strings.Join(strings.Split(s, "__"), ".")
	}), nil)
	if err != nil {
		zap.L().Warn("Error loading environment variables", zap.Error(err))
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Read loads configuration in precedence order: defaults, config file, then
// MFACTL_* environment variables (SECTION__KEY maps to section.key).
func Read() models.Configuration {
	k := koanf.New(".")

	loadDefaults(k)
	readFileConfig(k)
	readEnvVars(k)

	var config models.Configuration
	err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "mapstructure"})
	if err != nil {
		zap.L().Fatal("Unable to decode config into struct", zap.Error(err))
	}

	validate := validator.New()
	if err = validate.Struct(config); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	return config
}

// ValidateEmulator checks the fields only the emulator command requires.
func ValidateEmulator(config models.EmulatorConfiguration) error {
	validate := validator.New()
	type required struct {
		JWTSecret     string `validate:"required,min=16"`
		AdminEmail    string `validate:"required,email"`
		AdminPassword string `validate:"required,min=8"`
	}
	return validate.Struct(required{
		JWTSecret:     config.JWTSecret,
		AdminEmail:    config.AdminEmail,
		AdminPassword: config.AdminPassword,
	})
}
