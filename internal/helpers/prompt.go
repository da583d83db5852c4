package helpers

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	apierrors "console/internal/errors"

	"golang.org/x/term"
)

// ReadPassword prompts for a password without echo. The returned value is
// handed straight into a single request body and must not be retained by
// callers after the request resolves.
func ReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	password := string(raw)
	for i := range raw {
		raw[i] = 0
	}

	if password == "" {
		return "", apierrors.NewValidationError(apierrors.CodeEmptyPassword)
	}
	return password, nil
}

// ConfirmPhrase requires the user to type an exact phrase before a
// destructive operation proceeds.
func ConfirmPhrase(prompt string, phrase string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s\nType %q to continue: ", prompt, phrase)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == phrase, nil
}
