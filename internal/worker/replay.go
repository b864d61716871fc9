package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/claimadjudicate/internal/model"
)

// Replay is the outcome of running one scenario file
type Replay struct {
	Name     string
	Decision *model.FinalDecision
	Outputs  []string
}

// Replayer runs one scenario file to a decision
type Replayer interface {
	Replay(ctx context.Context, path string) (*Replay, error)
}

// ReplayJob runs one scenario file
type ReplayJob struct {
	Path     string
	Replayer Replayer
}

// Execute runs the scenario
func (j *ReplayJob) Execute(ctx context.Context) Result {
	replay, err := j.Replayer.Replay(ctx, j.Path)
	return &ReplayResult{Path: j.Path, Replay: replay, Error: err}
}

// ReplayResult is the result of a replay job
type ReplayResult struct {
	Path   string
	Replay *Replay
	Error  error
}

// GetError returns the error from the replay
func (r *ReplayResult) GetError() error {
	return r.Error
}

// BatchReplayer runs many scenario files concurrently, each in its own session
type BatchReplayer struct {
	replayer    Replayer
	concurrency int
}

// NewBatchReplayer creates a batch replayer
func NewBatchReplayer(replayer Replayer, concurrency int) *BatchReplayer {
	return &BatchReplayer{
		replayer:    replayer,
		concurrency: concurrency,
	}
}

// ReplayFiles runs every path and returns results in input order
func (b *BatchReplayer) ReplayFiles(ctx context.Context, paths []string) []*ReplayResult {
	if len(paths) == 0 {
		return []*ReplayResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&ReplayJob{Path: path, Replayer: b.replayer})
	}

	results := pool.Wait()

	out := make([]*ReplayResult, len(results))
	for i, r := range results {
		out[i] = r.(*ReplayResult)
	}
	return out
}

// ExpandPaths turns arguments into scenario files. Directories contribute
// their *.yaml and *.yml files; duplicates are dropped.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(arg))
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(arg, pattern))
			if err != nil {
				return nil, fmt.Errorf("glob %s: %w", arg, err)
			}
			for _, m := range matches {
				add(m)
			}
		}
	}
	return paths, nil
}

// ReadPathsFromFile reads scenario paths from a list file (one per line,
// # comments allowed). Relative paths resolve against the list's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return paths, nil
}
