package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/czapol/multi-agent-playground/ai"
	agent "github.com/czapol/multi-agent-playground/ai/agents"
)

const chatHelp = `Commands:
  /log      show the decision log
  /history  show the conversation
  /reset    start a new conversation
  /quit     exit`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session with the router",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		go svc.Warmup(cmd.Context())
		return runChat(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runChat reads one query per line from in until EOF or /quit.
func runChat(ctx context.Context, svc *ai.Service, in io.Reader, out io.Writer) error {
	sess := svc.Sessions.Create()
	fmt.Fprintf(out, "session %s, type /help for commands\n", sess.ID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
			continue
		case "/log":
			for _, d := range sess.Log().Entries() {
				fmt.Fprintln(out, formatDecision(d))
			}
			continue
		case "/history":
			fmt.Fprint(out, sess.Context().ToHistoryPrompt())
			continue
		case "/reset":
			if err := sess.Reset(); err != nil {
				fmt.Fprintln(out, "reset failed:", err)
			} else {
				fmt.Fprintln(out, "conversation cleared")
			}
			continue
		}
		if strings.HasPrefix(line, "/") {
			fmt.Fprintf(out, "unknown command %s\n", line)
			continue
		}

		res, err := svc.Orchestrator.Handle(ctx, sess, line)
		if err != nil {
			if errors.Is(err, agent.ErrSessionBusy) {
				fmt.Fprintln(out, "busy, try again")
				continue
			}
			return err
		}
		fmt.Fprintf(out, "[%s] %s\n", res.Capability.ID(), res.Message)
	}
}
