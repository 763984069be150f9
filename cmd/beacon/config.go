// config.go implements "beacon config", printing the effective settings.
package main

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"beacon/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}
	path, err := config.SettingsPath()
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n%s", path, data)
	return nil
}
