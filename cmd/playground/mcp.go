package main

import (
	"log/slog"
	"os"
	"os/signal"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcptools "github.com/czapol/multi-agent-playground/server/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the router as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
		defer stop()

		_, svc, err := newService(ctx)
		if err != nil {
			return err
		}
		defer svc.Close()

		s, _ := mcptools.NewServer(svc)
		stdio := mcpserver.NewStdioServer(s)
		stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

		slog.Info("mcp server listening on stdio")
		if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
