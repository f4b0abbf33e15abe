// Package main provides the querypro CLI: the terminal front-end of the Query
// Pro complaint system and a bundled mock backend for local use.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goatkit/querypro/internal/apierrors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(reportError(os.Stderr, err))
	}
}

// reportError prints the user-facing text of err and returns the exit code.
// Expired sessions get the login hint and their own code.
func reportError(w io.Writer, err error) int {
	if apierrors.IsUnauthorized(err) {
		fmt.Fprintln(w, apierrors.Registry.Message(apierrors.CodeUnauthorized))
		return 2
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	fmt.Fprintln(w, "Error:", apierrors.UserMessage(err, err.Error()))
	return 1
}
