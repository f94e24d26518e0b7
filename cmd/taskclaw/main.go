// TaskClaw - chat slash commands for project tasks
// License: MIT
//
// Copyright (c) 2026 TaskClaw contributors

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/cmd/taskclaw/internal/chatcmd"
	"github.com/sipeed/taskclaw/cmd/taskclaw/internal/project"
	"github.com/sipeed/taskclaw/cmd/taskclaw/internal/serve"
	"github.com/sipeed/taskclaw/cmd/taskclaw/internal/user"
	"github.com/sipeed/taskclaw/cmd/taskclaw/internal/version"
	"github.com/sipeed/taskclaw/pkg/config"
)

func NewTaskClawCommand() *cobra.Command {
	var configPath string

	short := fmt.Sprintf("%s taskclaw - Project task chat commands v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:           "taskclaw",
		Short:         short,
		Example:       "taskclaw chat --login alice --task 5",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath == "" {
				return nil
			}
			return os.Setenv(config.EnvTaskClawConfig, configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $TASKCLAW_HOME/config.json)")

	cmd.AddCommand(
		serve.NewServeCommand(),
		chatcmd.NewChatCommand(),
		user.NewUserCommand(),
		project.NewProjectCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewTaskClawCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
