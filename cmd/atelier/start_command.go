package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"atelier/internal/daemonctl"
)

const daemonStartTimeout = 10 * time.Second

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Launch the atelierd daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if _, err := client.Status(context.Background()); err == nil {
				fmt.Println("Daemon is already running.")
				return nil
			}

			executable, err := daemonExecutable()
			if err != nil {
				return err
			}
			var configPath string
			if ctx.configFlag != nil {
				configPath = *ctx.configFlag
			}
			if err := daemonctl.Launch(executable, daemonctl.LaunchOptions{ConfigPath: configPath}); err != nil {
				return err
			}
			if err := daemonctl.WaitForDaemon(context.Background(), client, daemonStartTimeout); err != nil {
				return err
			}
			fmt.Println("Daemon started.")
			return nil
		},
	}
}

// daemonExecutable looks for atelierd beside the CLI binary, then on PATH.
func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(self), "atelierd")
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "atelierd", nil
}
