package scenario

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/llm"
	"github.com/ppiankov/claimadjudicate/internal/worker"
	"go.uber.org/zap"
)

// FileReplayer runs scenario files and writes each decision as
// <slug>.json and <slug>.md under OutDir
type FileReplayer struct {
	Runner     *Runner
	OutDir     string
	Export     export.Options
	Summarizer *llm.Summarizer // optional
	Log        *zap.Logger
}

// Replay implements worker.Replayer
func (f *FileReplayer) Replay(ctx context.Context, path string) (*worker.Replay, error) {
	sc, err := Load(path)
	if err != nil {
		return nil, err
	}

	outcome, err := f.Runner.Run(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sc.Name, err)
	}

	replay := &worker.Replay{Name: sc.Name, Decision: outcome.Decision}
	if outcome.Decision == nil {
		return replay, nil
	}

	opts := f.Export
	if f.Summarizer.IsEnabled() {
		note, err := f.Summarizer.GenerateNote(ctx, outcome.Decision)
		switch {
		case err != nil:
			f.logger().Warn("note generation failed", zap.String("scenario", sc.Name), zap.Error(err))
		case note != nil && note.Enabled:
			opts.Note = note.Text
		}
	}

	doc, err := export.Build(outcome.Decision, opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	for _, format := range []export.Format{export.FormatJSON, export.FormatMarkdown} {
		out := filepath.Join(f.OutDir, sc.Slug()+"."+string(format))
		if err := writeExport(out, doc, format); err != nil {
			return nil, err
		}
		replay.Outputs = append(replay.Outputs, out)
	}
	return replay, nil
}

func (f *FileReplayer) logger() *zap.Logger {
	if f.Log == nil {
		return zap.NewNop()
	}
	return f.Log
}

func writeExport(path string, doc *export.Document, format export.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(file, doc, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
