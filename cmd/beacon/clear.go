// clear.go implements "beacon clear", removing a session from the registry.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"beacon/internal/client"
)

var clearCmd = &cobra.Command{
	Use:   "clear <id>",
	Short: "Remove a session from the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func runClear(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	if err := c.ClearSession(context.Background(), args[0]); err != nil {
		return requireDaemon(err)
	}
	fmt.Printf("Cleared %s.\n", args[0])
	return nil
}
