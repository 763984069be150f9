// send.go implements "beacon send", pushing reply text into a session.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"beacon/internal/client"
)

var sendCmd = &cobra.Command{
	Use:   "send <id-prefix> <text>...",
	Short: "Send reply text into a session",
	Long: `Deliver text to a session identified by its id or a unique prefix.
The daemon tries the live wrapper first and falls back to the drop-box
the wrapper polls.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := client.New()
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	delivered, err := c.SendInput(context.Background(), args[0], text)
	if err != nil {
		return requireDaemon(err)
	}
	if !delivered {
		return fmt.Errorf("could not deliver to %s; see daemon logs", args[0])
	}
	fmt.Println("Sent.")
	return nil
}
