package main

import (
	"fmt"
	"os"

	"console/internal/cli"
	apierrors "console/internal/errors"

	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until configuration is loaded and the file logger
	// replaces it.
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	if err := cli.NewRootCommand().Execute(); err != nil {
		if apierrors.IsValidation(err) || apierrors.IsAuth(err) ||
			apierrors.IsInvalidCode(err) || apierrors.Ambiguous(err) {
			fmt.Fprintln(os.Stderr, apierrors.UserMessage(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
