// Package miniaevol is the public facade over internal/world: an
// Options-configured Client wrapping a storage.Store, a RunRequest/
// RunSummary pair for the run entry point, and defaulting of zero-valued
// request fields before dispatch.
package miniaevol

import (
	"context"
	"errors"
	"fmt"

	"miniaevol/internal/config"
	"miniaevol/internal/logging"
	"miniaevol/internal/stats"
	"miniaevol/internal/storage"
	"miniaevol/internal/world"
)

// Options configures the persistence and statistics backends a Client
// dispatches runs against.
type Options struct {
	StoreKind  string // "memory" (default) or "sqlite"
	DBPath     string
	StatsDir   string // if set, a stats.FileSink is used instead of NoOpSink
	Logger     logging.Logger
}

// Client is the public entry point: one store, one logger, one stats
// backend shared across runs.
type Client struct {
	store  storage.Store
	sink   stats.Sink
	logger logging.Logger
}

// RunRequest carries the constructor inputs for a fresh run, with
// zero-valued fields defaulted before dispatch.
type RunRequest struct {
	GridWidth     int
	GridHeight    int
	Seed          int64
	MutationRate  float64
	InitLengthDNA int
	BackupStep    int
	Generations   int
}

// RunSummary reports the outcome of a completed run.
type RunSummary struct {
	RunID            string
	Generations      int
	FinalBestFitness float64
	FinalBestID      string
}

// New builds a Client from Options, defaulting an empty StoreKind to the
// in-memory backend.
func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = "memory"
	}
	store, err := storage.NewStore(storeKind, opts.DBPath)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.New()
	}
	var sink stats.Sink = stats.NoOpSink{}
	if opts.StatsDir != "" {
		sink = stats.NewFileSink(opts.StatsDir)
	}

	return &Client{store: store, sink: sink, logger: logger}, nil
}

// Close releases the client's store, if the backend supports it.
func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Run seeds a fresh World from req and advances it req.Generations times.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.GridWidth <= 0 {
		req.GridWidth = 32
	}
	if req.GridHeight <= 0 {
		req.GridHeight = 32
	}
	if req.InitLengthDNA <= 0 {
		req.InitLengthDNA = 5000
	}
	if req.Generations <= 0 {
		req.Generations = 100
	}

	cfg := config.Config{
		GridWidth:     req.GridWidth,
		GridHeight:    req.GridHeight,
		Seed:          req.Seed,
		MutationRate:  req.MutationRate,
		InitLengthDNA: req.InitLengthDNA,
		BackupStep:    req.BackupStep,
	}

	w, err := world.New(cfg, c.store, c.sink, c.logger)
	if err != nil {
		return RunSummary{}, err
	}

	for g := 0; g < req.Generations; g++ {
		if err := w.Step(ctx); err != nil {
			return RunSummary{}, fmt.Errorf("miniaevol: step %d: %w", g, err)
		}
	}

	best, err := w.Best()
	if err != nil {
		return RunSummary{}, err
	}
	return RunSummary{
		RunID:            w.RunID(),
		Generations:      req.Generations,
		FinalBestFitness: best.Derived.Fitness,
		FinalBestID:      best.ID,
	}, nil
}

// Resume continues a previously persisted run for an additional number of
// generations.
func (c *Client) Resume(ctx context.Context, runID string, generations int) (RunSummary, error) {
	if generations <= 0 {
		return RunSummary{}, errors.New("miniaevol: generations must be > 0")
	}
	w, err := world.Resume(ctx, runID, c.store, c.sink, c.logger)
	if err != nil {
		return RunSummary{}, err
	}
	for g := 0; g < generations; g++ {
		if err := w.Step(ctx); err != nil {
			return RunSummary{}, fmt.Errorf("miniaevol: resume step %d: %w", g, err)
		}
	}
	best, err := w.Best()
	if err != nil {
		return RunSummary{}, err
	}
	return RunSummary{
		RunID:            w.RunID(),
		Generations:      generations,
		FinalBestFitness: best.Derived.Fitness,
		FinalBestID:      best.ID,
	}, nil
}
