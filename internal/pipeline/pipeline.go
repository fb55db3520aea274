// Package pipeline is the host-side parse flow: input preparation, record
// cache, strategy run, coverage scoring and rendering.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ppiankov/assignparse/internal/cache"
	"github.com/ppiankov/assignparse/internal/extract"
	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/score"
	"github.com/ppiankov/assignparse/internal/strategy"
	"go.uber.org/zap"
)

// Options control a single parse
type Options struct {
	Strategy string // empty uses the pipeline default
	HTML     bool   // force HTML flattening
	NoCache  bool
}

// Pipeline orchestrates the complete parse process
type Pipeline struct {
	runner    *strategy.Runner
	extractor *extract.Extractor // diagnostics for coverage scoring
	scorer    *score.Scorer
	cache     *cache.RecordCache
	strategy  string
	logger    *zap.Logger
}

// New creates a pipeline. records may be nil to disable caching.
func New(cfg *model.Config, runner *strategy.Runner, records *cache.RecordCache, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Strategies already log extraction details; the diagnostics pass is quiet.
	extractor, err := extract.New(cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}
	id := cfg.Strategy
	if id == "" {
		id = strategy.RuleBased
	}
	return &Pipeline{
		runner:    runner,
		extractor: extractor,
		scorer:    score.NewScorer(),
		cache:     records,
		strategy:  id,
		logger:    logger,
	}, nil
}

// Result contains the complete parse result
type Result struct {
	Report *model.Report
	Trace  *strategy.Trace // nil on a cache hit
}

// Parse runs one email through the pipeline. source labels the report.
func (p *Pipeline) Parse(ctx context.Context, source, raw string, opts Options) (*Result, error) {
	id := opts.Strategy
	if id == "" {
		id = p.strategy
	}

	// 1. Prepare input
	text := PrepareInput(raw, opts.HTML)

	// 2. Cache lookup
	if !opts.NoCache {
		if rec, produced, ok := p.cache.Get(id, text); ok {
			p.logger.Debug("cache hit",
				zap.String("source", source),
				zap.String("strategy", id),
				zap.String("produced_by", produced))
			report := p.report(source, produced, "", rec, text)
			report.Cached = true
			return &Result{Report: report}, nil
		}
	}

	// 3. Run the strategy state machine
	rec, trace, err := p.runner.Run(ctx, id, text)
	if err != nil {
		return &Result{Trace: trace}, fmt.Errorf("parse %s: %w", source, err)
	}

	// 4. Cache the accepted record under the requested strategy
	produced, _ := trace.Final()
	if !opts.NoCache {
		p.cache.Put(id, text, produced, rec)
	}

	return &Result{
		Report: p.report(source, produced, trace.RequestID, rec, text),
		Trace:  trace,
	}, nil
}

// ParseReader reads all of r and parses it.
func (p *Pipeline) ParseReader(ctx context.Context, source string, r io.Reader, opts Options) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return p.Parse(ctx, source, string(data), opts)
}

// FileParser adapts the pipeline to batch processing with fixed options
type FileParser struct {
	pipeline *Pipeline
	opts     Options
}

// FileParser returns a parser that applies opts to every file.
func (p *Pipeline) FileParser(opts Options) *FileParser {
	return &FileParser{pipeline: p, opts: opts}
}

// ParseFile parses one email file.
func (f *FileParser) ParseFile(ctx context.Context, path string) (*model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	result, err := f.pipeline.Parse(ctx, path, string(data), f.opts)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

// report scores rec. Section diagnostics come from the rule extractor, so
// they only describe records that extractor produced.
func (p *Pipeline) report(source, id, requestID string, rec *model.Record, text string) *model.Report {
	var diag *extract.Diagnostics
	if ruleDerived(id) {
		_, diag = p.extractor.Extract(text)
	}
	return &model.Report{
		Source:    source,
		Strategy:  id,
		RequestID: requestID,
		ParsedAt:  time.Now().UTC(),
		Record:    rec,
		Coverage:  p.scorer.Calculate(rec, diag),
	}
}

func ruleDerived(id string) bool {
	return id == strategy.RuleBased || id == strategy.Hybrid
}
