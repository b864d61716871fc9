package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/scenario"
	"github.com/ppiankov/claimadjudicate/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency   int
	outputDir     string
	listFile      string
	replayTimeout time.Duration
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay [scenario.yaml | dir]...",
	Short: "Replay scripted reviews and export their decisions",
	Long: `Replay runs scripted claim reviews headlessly:
- Each scenario runs in its own isolated session
- Scenarios run in parallel with a configurable worker count
- Every submitted decision is written as <name>.json and <name>.md

Example:
  claimadjudicate replay scenarios/
  claimadjudicate replay accept.yaml reject.yaml --out ./decisions
  claimadjudicate replay --from scenarios.txt --concurrency 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), replayTimeout)
		defer cancel()

		failures, err := runReplay(ctx, cfg, replayOptions{
			concurrency: concurrency,
			outDir:      outputDir,
			listFile:    listFile,
		}, args, os.Stderr)
		if err != nil {
			return err
		}
		if failures > 0 {
			return fmt.Errorf("%d scenario(s) failed", failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	replayCmd.Flags().StringVar(&outputDir, "out", "./claim-decisions", "output directory for decision exports")
	replayCmd.Flags().StringVar(&listFile, "from", "", "file listing scenario paths, one per line")
	replayCmd.Flags().DurationVar(&replayTimeout, "timeout", 5*time.Minute, "total timeout for the replay")
}

type replayOptions struct {
	concurrency int
	outDir      string
	listFile    string
}

// runReplay replays every scenario and reports progress to out. It returns
// the number of failed scenarios.
func runReplay(ctx context.Context, cfg *model.Config, opts replayOptions, args []string, out io.Writer) (int, error) {
	paths, err := worker.ExpandPaths(args)
	if err != nil {
		return 0, err
	}
	if opts.listFile != "" {
		listed, err := worker.ReadPathsFromFile(opts.listFile)
		if err != nil {
			return 0, err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return 0, fmt.Errorf("no scenarios given")
	}
	if err := scenario.CheckOutputNames(paths); err != nil {
		return 0, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return 0, err
	}
	defer func() { _ = logger.Sync() }()

	source, err := buildSource(cfg)
	if err != nil {
		return 0, err
	}
	summarizer, err := buildSummarizer(cfg)
	if err != nil {
		return 0, err
	}

	replayer := &scenario.FileReplayer{
		Runner:     scenario.NewRunner(source, intake.New(cfg.Server.MaxUploadBytes), logger),
		OutDir:     opts.outDir,
		Export:     export.OptionsFromConfig(cfg.Export),
		Summarizer: summarizer,
		Log:        logger,
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Scenarios:  %d\n", len(paths))
	fmt.Fprintf(out, "  Workers:    %d\n", opts.concurrency)
	fmt.Fprintf(out, "  Output dir: %s\n", opts.outDir)
	fmt.Fprintf(out, "\n")

	results := worker.NewBatchReplayer(replayer, opts.concurrency).ReplayFiles(ctx, paths)

	failures := 0
	for _, r := range results {
		switch {
		case r.Error != nil:
			failures++
			fmt.Fprintf(out, "✗ %s: %v\n", r.Path, r.Error)
		case r.Replay.Decision == nil:
			fmt.Fprintf(out, "• %s: stopped before submission\n", r.Replay.Name)
		default:
			d := r.Replay.Decision
			fmt.Fprintf(out, "✓ %s: %s approved %s of %s (%s)\n",
				r.Replay.Name,
				d.ReferenceID,
				humanize.Comma(d.TotalApproved),
				humanize.Comma(d.TotalClaimed),
				model.FormatRate(d.ApprovalRate()),
			)
		}
	}

	if skipped := len(paths) - len(results); skipped > 0 {
		failures += skipped
		fmt.Fprintf(out, "✗ %d scenario(s) not run: %v\n", skipped, ctx.Err())
	}

	fmt.Fprintf(out, "\n")
	fmt.Fprintf(out, "  Total:    %d\n", len(paths))
	fmt.Fprintf(out, "  Failures: %d\n", failures)
	fmt.Fprintf(out, "\n")
	return failures, nil
}
