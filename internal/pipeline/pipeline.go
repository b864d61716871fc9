// Package pipeline runs the four processing stages in order, with a
// cancellable delay per stage and monotonic progress reporting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ppiankov/claimadjudicate/internal/extract"
	"github.com/ppiankov/claimadjudicate/internal/model"
)

// Observer receives progress snapshots. It is called from the goroutine
// running the pipeline and must not block for long.
type Observer func(Progress)

// Options controls stage timing
type Options struct {
	StageDuration time.Duration
	StageJitter   time.Duration
	TickInterval  time.Duration
}

// OptionsFromConfig builds Options from the processing config section
func OptionsFromConfig(cfg model.ProcessingConfig) Options {
	return Options{
		StageDuration: cfg.StageDuration,
		StageJitter:   cfg.StageJitter,
		TickInterval:  cfg.TickInterval,
	}
}

// Pipeline drives a Source through the processing stages
type Pipeline struct {
	source extract.Source
	opts   Options
	jitter func(max time.Duration) time.Duration
}

// New creates a pipeline over source
func New(source extract.Source, opts Options) *Pipeline {
	return &Pipeline{
		source: source,
		opts:   opts,
		jitter: func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return rand.N(max)
		},
	}
}

type run struct {
	source   extract.Source
	docs     []model.Document
	progress Progress
	stats    Stats
	result   *model.ExtractionResult
}

// Run executes every stage in order and returns the extraction result.
// Cancelling ctx stops the run at the next wait; no progress is emitted
// after cancellation.
func (p *Pipeline) Run(ctx context.Context, docs []model.Document, observe Observer) (*model.ExtractionResult, error) {
	r := &run{
		source:   p.source,
		docs:     docs,
		progress: InitialProgress(),
	}
	emit := func() {
		if observe == nil || ctx.Err() != nil {
			return
		}
		r.progress.Stats = r.stats
		observe(r.progress.snapshot())
	}
	emit()

	for i, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.progress.Stages[i].Status = model.StageProcessing
		emit()

		summary, err := st.exec(ctx, r)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("stage %q: %w", st.title, err)
		}

		delay := p.opts.StageDuration + p.jitter(p.opts.StageJitter)
		if err := p.wait(ctx, delay, func() {
			r.progress.Ticks++
			emit()
		}); err != nil {
			return nil, err
		}

		r.progress.Stages[i].Status = model.StageComplete
		r.progress.Stages[i].Summary = summary
		r.progress.Completed++
		r.progress.Percent = r.progress.Completed * 100 / r.progress.Total
		emit()
	}

	if r.result == nil {
		return nil, fmt.Errorf("pipeline finished without a draft result")
	}

	r.progress.Done = true
	emit()
	return r.result, nil
}

// wait blocks for d, calling onTick every tick interval
func (p *Pipeline) wait(ctx context.Context, d time.Duration, onTick func()) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	var tick <-chan time.Time
	if p.opts.TickInterval > 0 {
		ticker := time.NewTicker(p.opts.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-tick:
			onTick()
		}
	}
}

func (p Progress) snapshot() Progress {
	out := p
	out.Stages = make([]StageState, len(p.Stages))
	for i, s := range p.Stages {
		out.Stages[i] = s
		if s.Summary != nil {
			out.Stages[i].Summary = append([]string(nil), s.Summary...)
		}
	}
	return out
}
