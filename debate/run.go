package debate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Fetcher is the aggregator surface the runner needs.
type Fetcher interface {
	SearchRecentPosts(ctx context.Context, account string, now time.Time) ([]Post, error)
	SearchPopularReplies(ctx context.Context, parent Post, now time.Time) ([]Post, error)
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Write controls thread materialization.
	Write WriteOptions

	// Now supplies the wall clock; swapped out in tests (defaults time.Now).
	Now func() time.Time
}

// Runner drives the per-account pipeline: fetch recent roots, expand each with
// its popular replies, group by conversation, materialize, analyze. Entirely
// sequential.
type Runner struct {
	fetcher  Fetcher
	analyzer Analyzer
	cfg      RunnerConfig
	logger   *log.Logger
}

// NewRunner builds a Runner. analyzer may be nil to skip the analysis stage
// (fetch and materialize only); logger may be nil for stderr.
func NewRunner(fetcher Fetcher, analyzer Analyzer, cfg RunnerConfig, logger *log.Logger) *Runner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Runner{fetcher: fetcher, analyzer: analyzer, cfg: cfg, logger: logger}
}

// RunReport counts what one batch run did.
type RunReport struct {
	Accounts       int
	Skipped        int
	ThreadsWritten int
	Analyses       int
}

// AccountReport counts what processing a single account did.
type AccountReport struct {
	Skipped        bool
	ThreadsWritten int
	Analyses       int
}

// Run processes every account in order. Upstream fetch failures skip the
// affected account; materialization or file I/O errors abort the batch.
func (r *Runner) Run(ctx context.Context, accounts []string) (RunReport, error) {
	var rep RunReport
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return rep, fmt.Errorf("Run: %w", err)
		}
		ar, err := r.RunAccount(ctx, account)
		if err != nil {
			return rep, fmt.Errorf("Run: account %s: %w", account, err)
		}
		rep.Accounts++
		if ar.Skipped {
			rep.Skipped++
		}
		rep.ThreadsWritten += ar.ThreadsWritten
		rep.Analyses += ar.Analyses
	}
	return rep, nil
}

// RunAccount processes a single account.
func (r *Runner) RunAccount(ctx context.Context, account string) (AccountReport, error) {
	var rep AccountReport
	r.logger.Printf("processing @%s", account)

	roots, err := r.fetcher.SearchRecentPosts(ctx, account, r.cfg.Now())
	if err != nil {
		// A failed fetch skips the account like an empty window does; the
		// error stays visible in the log rather than aborting the batch.
		r.logger.Printf("fetch recent posts for @%s: %v", account, err)
		rep.Skipped = true
		return rep, nil
	}
	if len(roots) == 0 {
		r.logger.Printf("no recent posts for @%s, skipping", account)
		rep.Skipped = true
		return rep, nil
	}

	combined := make([]Post, 0, len(roots))
	for _, root := range roots {
		combined = append(combined, root)
		replies, err := r.fetcher.SearchPopularReplies(ctx, root, r.cfg.Now())
		if err != nil {
			r.logger.Printf("fetch replies for post %s: %v", root.ID, err)
			continue
		}
		combined = append(combined, replies...)
	}

	groups := GroupByConversation(combined)
	paths, err := WriteThreads(account, groups, r.cfg.Write)
	if err != nil {
		return rep, fmt.Errorf("RunAccount: %w", err)
	}
	rep.ThreadsWritten = len(paths)
	r.logger.Printf("wrote %d conversation(s) for @%s", len(paths), account)

	if r.analyzer == nil {
		return rep, nil
	}
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return rep, fmt.Errorf("RunAccount: read thread %s: %w", path, err)
		}
		analysis := r.analyzer.Analyze(ctx, string(b))
		rep.Analyses++
		r.logger.Printf("analysis %s:\n%s", filepath.Base(path), analysis)
	}
	return rep, nil
}
