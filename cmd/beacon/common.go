package main

import (
	"context"
	"errors"
	"strings"
	"syscall"
)

// requireDaemon rewrites connection failures into a hint the user can act
// on; every other error passes through untouched.
func requireDaemon(err error) error {
	if isDaemonUnavailable(err) {
		return errors.New("daemon is not running; start it with: beacon serve")
	}
	return err
}

func isDaemonUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "connection refused") || strings.Contains(lower, "connect: connection refused")
}
