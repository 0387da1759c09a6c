package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/czapol/multi-agent-playground/ai"
	"github.com/czapol/multi-agent-playground/ai/observability/logging"
	"github.com/czapol/multi-agent-playground/internal/profile"
	"github.com/czapol/multi-agent-playground/internal/version"
)

var (
	rootCmd = &cobra.Command{
		Use:           "playground",
		Short:         `A two-level query router. Picks a provider family, then a capability, and keeps a per-session decision log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units pass their environment explicitly.
			if !isRunningAsSystemdService() {
				// Ignore error if .env doesn't exist
				_ = godotenv.Load()
			}
			// Logs always go to stderr, stdout belongs to answers and the MCP transport.
			_, err := logging.Setup(os.Stderr, viper.GetString("log-level"), viper.GetString("log-format"))
			return err
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28081)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")

	flags := rootCmd.PersistentFlags()
	flags.String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	flags.String("addr", "", "address of server")
	flags.Int("port", 28081, "port of server")
	flags.String("data", "", "data directory")
	flags.String("dsn", "", "document index path (default: <data>/playground_<mode>.db)")
	flags.String("config-dir", "", "directory holding routing.yaml and instructions/ (default: data directory)")
	flags.String("docs", "", "directory of markdown/text files to index for file search")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.Int("history-window", 0, "turns of history sent to a backend (default: 20)")
	flags.Int("max-concurrent-queries", 0, "in-flight query bound for the HTTP API (default: 8)")

	for _, name := range []string{
		"mode", "addr", "port", "data", "dsn", "config-dir", "docs",
		"log-level", "log-format", "history-window", "max-concurrent-queries",
	} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("playground")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(serveCmd, askCmd, chatCmd, indexCmd, mcpCmd, versionCmd)
}

// loadProfile builds the instance profile from flags and environment.
// Commands that never call a backend pass requireBackends=false and only
// get the storage checks.
func loadProfile(requireBackends bool) (*profile.Profile, error) {
	mode := viper.GetString("mode")
	p := &profile.Profile{
		Mode:                 mode,
		Addr:                 viper.GetString("addr"),
		Port:                 viper.GetInt("port"),
		Data:                 viper.GetString("data"),
		DSN:                  viper.GetString("dsn"),
		ConfigDir:            viper.GetString("config-dir"),
		DocsDir:              viper.GetString("docs"),
		LogLevel:             viper.GetString("log-level"),
		LogFormat:            viper.GetString("log-format"),
		HistoryWindow:        viper.GetInt("history-window"),
		MaxConcurrentQueries: viper.GetInt("max-concurrent-queries"),
		Version:              version.GetCurrentVersion(mode),
	}
	p.FromEnv()

	var err error
	if requireBackends {
		err = p.Validate()
	} else {
		err = p.ValidateStorage()
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newService loads the profile and wires the router.
func newService(ctx context.Context) (*profile.Profile, *ai.Service, error) {
	p, err := loadProfile(true)
	if err != nil {
		return nil, nil, err
	}
	svc, err := ai.NewService(ctx, ai.NewConfigFromProfile(p))
	if err != nil {
		return nil, nil, err
	}
	return p, svc, nil
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printConfigurationError tells the user which setting to fix.
func printConfigurationError(cfgErr *profile.ConfigurationError) {
	fmt.Fprintln(os.Stderr, "\nConfiguration error")
	fmt.Fprintln(os.Stderr, "-------------------")
	fmt.Fprintf(os.Stderr, "%s: %s\n", cfgErr.Field, cfgErr.Reason)

	if strings.HasSuffix(cfgErr.Field, "API_KEY") {
		fmt.Fprintln(os.Stderr, "\nSet the key in the environment or in .env, for example:")
		fmt.Fprintln(os.Stderr, "  export PLAYGROUND_PRIMARY_API_KEY=sk-...")
		fmt.Fprintln(os.Stderr, "Or point the primary family at a local model:")
		fmt.Fprintln(os.Stderr, "  export PLAYGROUND_PRIMARY_PROVIDER=ollama")
	}

	if _, statErr := os.Stat(".env"); statErr == nil {
		fmt.Fprintln(os.Stderr, "\nFound .env file - configuration loaded from current directory.")
	} else {
		fmt.Fprintln(os.Stderr, "\nTip: create a .env file for local configuration.")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var cfgErr *profile.ConfigurationError
		if errors.As(err, &cfgErr) {
			printConfigurationError(cfgErr)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
