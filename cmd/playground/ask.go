package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	agent "github.com/czapol/multi-agent-playground/ai/agents"
	"github.com/czapol/multi-agent-playground/ai/routing"
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Route one query and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		explain, _ := cmd.Flags().GetBool("explain")
		if format != "text" && format != "json" {
			return fmt.Errorf("unknown output format %q", format)
		}

		_, svc, err := newService(cmd.Context())
		if err != nil {
			return err
		}
		defer svc.Close()

		res, err := svc.Ask(cmd.Context(), "cli", strings.Join(args, " "))
		if err != nil {
			return err
		}
		return writeResult(cmd.OutOrStdout(), res, format, explain)
	},
}

func init() {
	askCmd.Flags().String("format", "text", "output format: text or json")
	askCmd.Flags().Bool("explain", false, "print the routing decisions after the answer")
}

// writeResult prints res. A failed query still prints its message.
func writeResult(w io.Writer, res *agent.Result, format string, explain bool) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if _, err := fmt.Fprintln(w, res.Message); err != nil {
		return err
	}
	if explain {
		for _, d := range res.Decisions {
			if _, err := fmt.Fprintln(w, formatDecision(d)); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatDecision renders a decision as one log line, e.g.
// "#2 sub_router -> WEB_SEARCH (keyword, 0.80) matched: news".
func formatDecision(d routing.Decision) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s -> %s (%s, %.2f)", d.Seq, d.DecidedBy, d.Target, d.Method, d.Confidence)
	if d.Fallback {
		sb.WriteString(" fallback")
	}
	if d.Rationale != "" {
		sb.WriteString(" ")
		sb.WriteString(d.Rationale)
	}
	return sb.String()
}
