// Command thread-fetch runs the fetch and materialize stages only: it pulls
// recent posts and popular replies for the configured accounts and writes the
// conversation thread files, without spending any model tokens. Useful for
// inspecting what debate-watch would analyze.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/signalhouse/debatewatch/debate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.AggregatorToken == "" {
		cfg.AggregatorToken = os.Getenv("AGGREGATOR_API_KEY")
	}
	if cfg.AggregatorToken == "" {
		cfg.AggregatorToken = os.Getenv("TWITTER_API_KEY")
	}
	if cfg.AggregatorToken == "" {
		fmt.Fprintln(os.Stderr, "missing AGGREGATOR_API_KEY (or pass -aggregator-token)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	client := debate.NewClient(debate.ClientConfig{
		URL:            cfg.AggregatorURL,
		Token:          cfg.AggregatorToken,
		Window:         cfg.Window,
		Timeout:        cfg.Timeout,
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})

	// nil analyzer: materialize only.
	runner := debate.NewRunner(client, nil, debate.RunnerConfig{
		Write: debate.WriteOptions{OutputDir: cfg.OutDir},
	}, logger)

	accounts, err := debate.ReadAccounts(cfg.AccountsFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(accounts) == 0 {
		fmt.Fprintf(os.Stderr, "no accounts found in %s\n", cfg.AccountsFile)
		os.Exit(2)
	}

	rep, err := runner.Run(ctx, accounts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, "accounts=%d skipped=%d threads_written=%d out_dir=%s\n",
		rep.Accounts, rep.Skipped, rep.ThreadsWritten, cfg.OutDir)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.AccountsFile, "accounts", cfg.AccountsFile, "Path to a plain-text file of account identifiers, one per line")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Directory to write conversation thread files into")
	fs.StringVar(&cfg.AggregatorURL, "aggregator-url", cfg.AggregatorURL, "Aggregator search endpoint")
	fs.DurationVar(&cfg.Window, "window", cfg.Window, "Trailing query window")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request HTTP timeout for aggregator calls")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Attempts per aggregator request before giving up on rate limiting")
	fs.DurationVar(&cfg.RetryBaseDelay, "retry-base-delay", cfg.RetryBaseDelay, "Backoff before the first rate-limit retry (doubles per attempt)")
	fs.StringVar(&cfg.AggregatorToken, "aggregator-token", "", "Aggregator API token (overrides AGGREGATOR_API_KEY env var)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	return cfg, nil
}
