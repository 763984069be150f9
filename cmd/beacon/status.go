// status.go implements "beacon status", a quick daemon health check.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"beacon/internal/client"
	"beacon/internal/config"
	"beacon/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon health and the current reply target",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	c := client.NewWithBaseURL(fmt.Sprintf("http://127.0.0.1:%d", settings.HookPort()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	health, err := c.Health(ctx)
	if err != nil {
		if isDaemonUnavailable(err) {
			fmt.Println("Daemon is not running.")
			return nil
		}
		return err
	}
	fmt.Printf("Daemon running: version %s, pid %d, port %d\n", health.Version, health.PID, settings.HookPort())

	target, err := c.Target(ctx)
	if err != nil {
		return err
	}
	if target == nil {
		fmt.Println("No session is waiting or active.")
		return nil
	}
	fmt.Printf("Target: %s\n", daemon.FormatLine(target))
	return nil
}
