package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"beacon/internal/types"
)

// Desktop notifies through the first usable local mechanism: dunstify,
// then notify-send, then the terminal bell.
type Desktop struct {
	lookPath func(file string) (string, error)
	runCmd   func(ctx context.Context, name string, args ...string) error
	bell     io.Writer
}

func NewDesktop() *Desktop {
	return &Desktop{
		lookPath: exec.LookPath,
		runCmd: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		bell: os.Stdout,
	}
}

func (d *Desktop) Name() string { return "desktop" }

func (d *Desktop) Notify(ctx context.Context, n types.Notification) error {
	title, body := TitleBody(n)
	for _, tool := range []string{"dunstify", "notify-send"} {
		if _, err := d.lookPath(tool); err != nil {
			continue
		}
		if err := d.runCmd(ctx, tool, title, body); err == nil {
			return nil
		}
	}
	_, err := fmt.Fprint(d.bell, "\a")
	return err
}
