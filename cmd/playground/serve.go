package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/czapol/multi-agent-playground/internal/profile"
	"github.com/czapol/multi-agent-playground/server"
)

const sessionSweepInterval = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), terminationSignals...)
	defer stop()

	p, svc, err := newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if p.DocsDir != "" {
		report, err := svc.Store.IndexDir(ctx, p.DocsDir)
		if err != nil {
			slog.Warn("failed to index documents, file search starts empty", "dir", p.DocsDir, "error", err)
		} else {
			slog.Info("documents indexed", "dir", p.DocsDir, "indexed", report.Indexed, "skipped", report.Skipped)
		}
	}

	s, err := server.NewServer(ctx, p, svc)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	printGreetings(p, s)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		svc.Warmup(gctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				svc.CleanupIdleSessions()
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown(context.Background())
		return nil
	})
	return g.Wait()
}

func printGreetings(p *profile.Profile, s *server.Server) {
	fmt.Printf("Multi-agent playground %s started successfully!\n", p.Version)

	if p.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Document index: %s\n", p.DSN)
	fmt.Printf("Mode: %s\n", p.Mode)
	fmt.Printf("Providers: primary=%s secondary=%s offline=%s\n", p.Primary.Name, p.Secondary.Name, p.Offline.Name)
	fmt.Printf("Server running on %s\n", s.Addr())
	fmt.Printf("API: http://%s/api/v1/sessions\n", s.Addr())
	fmt.Println()
}
