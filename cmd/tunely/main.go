package main

import (
	"errors"
	"fmt"
	"os"

	"tunely/internal/services"
)

const (
	exitFailure       = 1
	exitRequestFailed = 2
	exitInvalidInput  = 3
	exitInterrupted   = 130
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		code := exitCode(err)
		if code != exitInterrupted {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// exitCode separates interrupted runs and rejected input from requests that
// ran and failed, so scripts can tell them apart.
func exitCode(err error) int {
	var failed *requestFailedError
	switch kind := services.Kind(err); {
	case kind == services.KindCanceled:
		return exitInterrupted
	case kind == services.KindInputInvalid:
		return exitInvalidInput
	case errors.As(err, &failed):
		return exitRequestFailed
	default:
		return exitFailure
	}
}
