package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sipeed/taskclaw/cmd/taskclaw/internal"
	"github.com/sipeed/taskclaw/pkg/gateway"
)

func NewServeCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the chat gateway, WebSocket channel and reminders",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveCmd(cmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func serveCmd(parent context.Context, debug bool) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := internal.SetupLogging(cfg, debug); err != nil {
		return err
	}
	if debug {
		fmt.Println("🔍 Debug mode enabled")
	}

	gateway.SetVersion(internal.GetVersion())

	app, err := internal.NewApp(cfg)
	if err != nil {
		return err
	}

	r, err := newRunner(app)
	if err != nil {
		app.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.start(ctx); err != nil {
		r.stop()
		return err
	}
	fmt.Printf("%s Gateway listening on %s\n", internal.Logo, cfg.Gateway.Addr())

	<-ctx.Done()
	r.stop()
	fmt.Println("✓ Gateway stopped")
	return nil
}
