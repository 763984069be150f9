// sessions.go implements "beacon sessions", the glyph list of known sessions.
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"beacon/internal/client"
	"beacon/internal/daemon"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List known sessions, most recently active first",
	RunE:  runSessionsList,
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		return requireDaemon(err)
	}
	fmt.Println(daemon.FormatList(sessions))
	return nil
}
