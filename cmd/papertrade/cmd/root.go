package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"papertrade/internal/app"
	"papertrade/internal/config"
	"papertrade/internal/logging"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Paper trading against live stock quotes",
	Long: `papertrade keeps a cash balance and an append-only trade ledger per
account. Holdings are always derived from the ledger.

Configuration comes from the environment (DB_DSN, JWT_SECRET, API_KEY, ...)
and optionally a YAML file given with --config.

Examples:
  papertrade register -u alice
  papertrade quote NFLX
  papertrade buy -u alice NFLX 10
  papertrade portfolio -u alice
  papertrade serve`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	configPath string
	username   string
	logLevel   string
	plain      bool
)

// stdin is swapped by tests.
var stdin io.Reader = os.Stdin

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides $"+config.FileEnv+")")
	rootCmd.PersistentFlags().StringVarP(&username, "user", "u", "", "account username")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for CLI commands")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	var r reported
	if err != nil && !errors.As(err, &r) {
		fmt.Fprintln(rootCmd.ErrOrStderr(), failf("error: %v", err))
	}
	return err
}

func openApp(cmd *cobra.Command) (*app.App, error) {
	if configPath != "" {
		if err := os.Setenv(config.FileEnv, configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := logLevel
	if cmd.Name() == "serve" {
		level = cfg.Log.Level
	}
	log := logging.New(cmd.ErrOrStderr(), logging.Options{Level: level, Format: cfg.Log.Format, Prefix: "papertrade"})
	return app.New(cmd.Context(), cfg, log)
}

func requireUser() error {
	if username == "" {
		return errors.New("--user is required")
	}
	return nil
}

// readSecret prompts without echo on a terminal and reads a line otherwise.
func readSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := lineReader().ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var buffered *bufio.Reader

func lineReader() *bufio.Reader {
	if buffered == nil {
		buffered = bufio.NewReader(stdin)
	}
	return buffered
}
