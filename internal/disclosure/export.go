package disclosure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"console/internal/configuration"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
)

var caveatLines = []string{
	"Each code can be used exactly once. Store them as carefully as a password.",
	"Regenerating backup codes invalidates every code below.",
}

// CopyToClipboard serializes the codes newline-joined to the system
// clipboard and counts as saving them.
func (d *Disclosure) CopyToClipboard() error {
	d.mu.Lock()
	if d.dismissed {
		d.mu.Unlock()
		return ErrDismissed
	}
	payload := strings.Join(d.codes, "\n")
	d.mu.Unlock()

	if err := clipboard.WriteAll(payload); err != nil {
		return fmt.Errorf("failed to copy backup codes: %w", err)
	}
	d.MarkSaved()
	return nil
}

// WriteFile downloads the codes as a plain-text file in dir and returns the
// full path. The filename embeds the generation time in epoch millis so
// consecutive downloads never collide.
func (d *Disclosure) WriteFile(dir string) (string, error) {
	d.mu.Lock()
	if d.dismissed {
		d.mu.Unlock()
		return "", ErrDismissed
	}
	content := d.renderLocked()
	d.mu.Unlock()

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := fmt.Sprintf(configuration.BackupCodeFilePattern,
		sanitizeSubject(d.subject), d.generatedAt.UnixMilli())
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write backup codes file: %w", err)
	}

	zap.L().Info("Backup codes exported to file", zap.String("path", path))
	d.MarkSaved()
	return path, nil
}

// PrintView renders the print-formatted text. The view is transient: the
// caller shows it in a secondary rendering context and discards it.
func (d *Disclosure) PrintView() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dismissed {
		return "", ErrDismissed
	}
	return d.renderLocked(), nil
}

// renderLocked produces the export body: header lines, a blank line, caveat
// lines, a blank line, then one code per line.
func (d *Disclosure) renderLocked() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "MFA Backup Codes for %s\n", d.subject)
	fmt.Fprintf(&sb, "Generated: %s\n", d.generatedAt.Format(configuration.BackupCodeFileTimeFormat))
	sb.WriteString("\n")
	for _, line := range caveatLines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	for _, code := range d.codes {
		sb.WriteString(code)
		sb.WriteString("\n")
	}
	return sb.String()
}

// sanitizeSubject keeps the filename portable: anything outside
// [a-zA-Z0-9._-] becomes a dash.
func sanitizeSubject(subject string) string {
	if subject == "" {
		return "account"
	}
	out := make([]rune, 0, len(subject))
	for _, r := range subject {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '-')
		}
	}
	return string(out)
}

// ParseExportedCodes splits a downloaded file body back into its code lines,
// skipping the header block. Used to verify round-trips.
func ParseExportedCodes(content string) []string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")

	// Codes follow the last blank line.
	last := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			last = i
		}
	}
	if last == -1 || last == len(lines)-1 {
		return nil
	}
	return lines[last+1:]
}
