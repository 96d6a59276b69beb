package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leaf/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve components with live reload",
		Long: `Start the development server.

Components are compiled on demand per request and served as preview
pages. Source files are watched for changes; connected browsers reload
automatically when a component is edited.

The server exposes:
  /            component index
  /c/{name}    component preview page
  /metrics     Prometheus metrics`,
		Example: `  # Serve on the default port
  leaf serve

  # Serve on a specific port
  leaf serve --port 3000

  # Serve without the file watcher
  leaf serve --no-watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, noWatch)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Disable the file watcher and live reload")

	return cmd
}

func runServe(cmd *cobra.Command, noWatch bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateDirectories(); err != nil {
		return err
	}

	srv := server.New(server.Config{
		Engine: cmdCtx.Engine,
		Port:   cmdCtx.Cfg.Port,
		SrcDir: cmdCtx.Cfg.SrcDir,
		Watch:  !noWatch,
		Logger: cmdCtx.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving components from %s on http://localhost:%d\n", cmdCtx.Cfg.SrcDir, cmdCtx.Cfg.Port)

	return srv.Serve(ctx)
}
