package debate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/signalhouse/debatewatch/debate/fileutils"
)

// WriteOptions controls how conversation records are written.
type WriteOptions struct {
	// OutputDir is where thread text files are written.
	OutputDir string

	// DirMode is used when creating output directories (defaults to 0o755).
	DirMode fs.FileMode

	// FileMode is used when creating output files (defaults to 0o644).
	FileMode fs.FileMode
}

// WriteThreads persists each conversation group as a text file named
// {account}_{conversation_id}.txt under opts.OutputDir, posts sorted ascending
// by their created_at string (missing timestamps first). An existing file of
// the same name is fully overwritten. Returns the written paths in group
// order.
func WriteThreads(account string, groups ConversationGroups, opts WriteOptions) ([]string, error) {
	if account == "" {
		return nil, errors.New("WriteThreads: account is empty")
	}
	if opts.OutputDir == "" {
		return nil, errors.New("WriteThreads: opts.OutputDir is empty")
	}
	if opts.DirMode == 0 {
		opts.DirMode = 0o755
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}
	if err := os.MkdirAll(opts.OutputDir, opts.DirMode); err != nil {
		return nil, fmt.Errorf("WriteThreads: mkdir output dir: %w", err)
	}

	var written []string
	for _, convID := range groups.IDs() {
		posts := groups.Posts(convID)
		sortPostsByTime(posts)

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s.txt", account, convID))
		if err := fileutils.WriteFileAtomicSameDir(path, []byte(renderThread(posts)), opts.FileMode); err != nil {
			return nil, fmt.Errorf("WriteThreads: write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// sortPostsByTime orders posts ascending by their created_at string. The
// aggregator's ISO-like timestamps compare correctly as strings, and the empty
// string (missing timestamp) sorts first. The sort is stable so equal
// timestamps keep input order.
func sortPostsByTime(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt < posts[j].CreatedAt
	})
}

func renderThread(posts []Post) string {
	var b strings.Builder
	for _, p := range posts {
		id := p.ID
		if id == "" {
			id = "UNKNOWN"
		}
		author := p.Author
		if author == "" {
			author = "UNKNOWN"
		}
		created := p.CreatedAt
		if created == "" {
			created = "UNKNOWN"
		}
		fmt.Fprintf(&b, "TweetID: %s\n", id)
		fmt.Fprintf(&b, "Author: %s\n", author)
		fmt.Fprintf(&b, "Time: %s\n", created)
		fmt.Fprintf(&b, "Likes: %d\n", p.LikeCount)
		fmt.Fprintf(&b, "%s\n\n", p.Text)
	}
	return b.String()
}
