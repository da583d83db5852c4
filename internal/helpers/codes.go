package helpers

import (
	"crypto/rand"
	"math/big"
	"strings"

	"console/internal/configuration"
)

// backupCodeCharset avoids visually ambiguous characters (0/O, 1/I/L).
const backupCodeCharset = "ABCDEFGHJKMNPQRSTVWXYZ23456789"

// GenerateBackupCode produces one fixed-format recovery code, XXXXX-XXXXX.
func GenerateBackupCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < configuration.BackupCodeGroupLength*2; i++ {
		if i == configuration.BackupCodeGroupLength {
			sb.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeCharset))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(backupCodeCharset[n.Int64()])
	}
	return sb.String(), nil
}

// GenerateBackupCodes produces a full issuance of recovery codes.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, 0, configuration.BackupCodeCount)
	for i := 0; i < configuration.BackupCodeCount; i++ {
		code, err := GenerateBackupCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}
