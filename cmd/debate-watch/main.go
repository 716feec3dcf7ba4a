package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/robfig/cron/v3"

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
		cfg.AggregatorToken = aggregatorTokenFromEnv()
	}
	if cfg.AggregatorToken == "" {
		fmt.Fprintln(os.Stderr, "missing AGGREGATOR_API_KEY (or pass -aggregator-token)")
		os.Exit(2)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
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

	oai := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	analyzer := debate.NewThreadAnalyzer(debate.OpenAICaller{Client: &oai}, debate.AnalyzerConfig{Model: cfg.Model}, logger)

	runner := debate.NewRunner(client, analyzer, debate.RunnerConfig{
		Write: debate.WriteOptions{OutputDir: cfg.OutDir},
	}, logger)

	runBatch := func(ctx context.Context) error {
		accounts, err := debate.ReadAccounts(cfg.AccountsFile)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return fmt.Errorf("no accounts found in %s", cfg.AccountsFile)
		}
		rep, err := runner.Run(ctx, accounts)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "accounts=%d skipped=%d threads_written=%d analyses=%d\n",
			rep.Accounts, rep.Skipped, rep.ThreadsWritten, rep.Analyses)
		return nil
	}

	if !cfg.Watch {
		if err := runBatch(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	// Watch mode: run once now, then on every interval tick until interrupted.
	// A run that outlasts the interval makes the next tick skip instead of
	// overlapping it.
	var running sync.Mutex
	tick := func() {
		if !running.TryLock() {
			logger.Printf("previous run still in progress, skipping tick")
			return
		}
		defer running.Unlock()
		if err := runBatch(ctx); err != nil {
			logger.Printf("run failed: %v", err)
		}
	}

	tick()
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.Interval), tick); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("schedule watch runs: %w", err).Error())
		os.Exit(1)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

// aggregatorTokenFromEnv prefers AGGREGATOR_API_KEY and falls back to the
// legacy TWITTER_API_KEY name.
func aggregatorTokenFromEnv() string {
	if v := os.Getenv("AGGREGATOR_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("TWITTER_API_KEY")
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.AccountsFile, "accounts", cfg.AccountsFile, "Path to a plain-text file of account identifiers, one per line")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Directory to write conversation thread files into")
	fs.StringVar(&cfg.AggregatorURL, "aggregator-url", cfg.AggregatorURL, "Aggregator search endpoint")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Completion model used for thread analysis")
	fs.DurationVar(&cfg.Window, "window", cfg.Window, "Trailing query window")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request HTTP timeout for aggregator calls")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "Attempts per aggregator request before giving up on rate limiting")
	fs.DurationVar(&cfg.RetryBaseDelay, "retry-base-delay", cfg.RetryBaseDelay, "Backoff before the first rate-limit retry (doubles per attempt)")
	fs.BoolVar(&cfg.Watch, "watch", false, "Keep running, repeating the batch every -interval")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Interval between watch-mode runs")
	fs.StringVar(&cfg.AggregatorToken, "aggregator-token", "", "Aggregator API token (overrides AGGREGATOR_API_KEY env var)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/debate-watch -accounts accounts.txt -out debate_chains -watch")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	return cfg, nil
}
