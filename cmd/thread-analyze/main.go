// Command thread-analyze re-runs the model analysis over already-materialized
// conversation thread files, e.g. after changing models. Each {name}.txt gets
// a {name}.analysis.txt written alongside (or under -out).
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/signalhouse/debatewatch/debate"
	"github.com/signalhouse/debatewatch/debate/fileutils"
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

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	threadFiles, err := collectThreadFiles(cfg.InPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if len(threadFiles) == 0 {
		fmt.Fprintln(os.Stderr, "no thread .txt files found")
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	oai := openai.NewClient(option.WithAPIKey(apiKey))
	analyzer := debate.NewThreadAnalyzer(debate.OpenAICaller{Client: &oai}, debate.AnalyzerConfig{Model: cfg.Model}, logger)

	for i, threadPath := range threadFiles {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		analysis, err := analyzer.AnalyzeFile(ctx, threadPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		outPath := analysisOutPath(cfg.OutDir, threadPath)
		if err := fileutils.WriteFileAtomicSameDir(outPath, []byte(analysis+"\n"), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("write %s: %w", outPath, err).Error())
			os.Exit(1)
		}
		if cfg.Print {
			fmt.Fprintf(os.Stdout, "=== %s ===\n%s\n\n", filepath.Base(threadPath), analysis)
		}
		fmt.Fprintf(os.Stderr, "progress thread-analyze: %d/%d analyzed (last=%s)\n",
			i+1, len(threadFiles), filepath.Base(threadPath))
	}
}

func analysisOutPath(outDir, threadPath string) string {
	base := strings.TrimSuffix(filepath.Base(threadPath), filepath.Ext(threadPath)) + ".analysis.txt"
	if outDir == "" {
		return filepath.Join(filepath.Dir(threadPath), base)
	}
	return filepath.Join(outDir, base)
}

func collectThreadFiles(inPath string) ([]string, error) {
	fi, err := os.Stat(inPath)
	if err != nil {
		return nil, fmt.Errorf("stat -in: %w", err)
	}

	if !fi.IsDir() {
		if strings.ToLower(filepath.Ext(inPath)) != ".txt" {
			return nil, fmt.Errorf("input file must be .txt: %s", inPath)
		}
		return []string{inPath}, nil
	}

	entries, err := os.ReadDir(inPath)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.ToLower(filepath.Ext(name)) != ".txt" {
			continue
		}
		// Skip our own outputs when rescanning a directory.
		if strings.HasSuffix(name, ".analysis.txt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("read dir entry info %s: %w", name, err)
		}
		if info.Mode()&fs.ModeType != 0 {
			continue
		}
		files = append(files, filepath.Join(inPath, name))
	}
	sort.Strings(files)
	return files, nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Path to a single thread .txt file OR a directory of thread files")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Directory for .analysis.txt files (default: alongside each thread file)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Completion model used for thread analysis")
	fs.BoolVar(&cfg.Print, "print", cfg.Print, "Echo each analysis to stdout")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/thread-analyze -in debate_chains -model gpt-4o")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.InPath = filepath.Clean(cfg.InPath)
	if cfg.OutDir != "" {
		cfg.OutDir = filepath.Clean(cfg.OutDir)
	}
	return cfg, nil
}
