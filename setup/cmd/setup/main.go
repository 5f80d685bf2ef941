package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A signal during a no-echo read leaves the terminal without echo.
	var restore func()
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if st, err := term.GetState(fd); err == nil {
			restore = func() { _ = term.Restore(fd, st) }
		}
	}

	err := newRootCmd().ExecuteContext(ctx)
	os.Exit(exitCode(err, restore))
}

func exitCode(err error, restore func()) int {
	var ec exitError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errInterrupted):
		if restore != nil {
			restore()
		}
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		return 130
	case errors.As(err, &ec):
		return ec.code
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}
