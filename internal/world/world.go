// Package world holds the toroidal grid and drives per-generation
// selection, mutation, and reproduction, wiring in the statistics
// collaborator called after every step and the persistence collaborator
// called every BackupStep generations.
package world

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"miniaevol/internal/config"
	"miniaevol/internal/genome"
	"miniaevol/internal/logging"
	"miniaevol/internal/mutator"
	"miniaevol/internal/organism"
	"miniaevol/internal/pipeline"
	"miniaevol/internal/rng"
	"miniaevol/internal/snapshot"
	"miniaevol/internal/stats"
	"miniaevol/internal/storage"
	"miniaevol/internal/target"
)

// ErrEmptyPopulation is returned by Best when the previous-generation array
// has no organisms to report on.
var ErrEmptyPopulation = errors.New("world: empty population")

// World is the grid, the two population arrays, the run's RNG key and
// target curve, and its persistence/statistics collaborators.
type World struct {
	mu sync.Mutex

	runID  string
	cfg    config.Config
	key    rng.Key
	target []float64

	previous   []*organism.Organism
	current    []*organism.Organism
	nextParent []int

	generation uint64

	store  storage.Store
	stats  stats.Sink
	logger logging.Logger
}

// New validates cfg and seeds a fresh initial population.
func New(cfg config.Config, store storage.Store, sink stats.Sink, logger logging.Logger) (*World, error) {
	cfg = cfg.WithDefaultTunables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New()
	}
	if sink == nil {
		sink = stats.NoOpSink{}
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}

	n := cfg.GridWidth * cfg.GridHeight
	w := &World{
		runID:      uuid.NewString(),
		cfg:        cfg,
		key:        rng.NewKey(cfg.Seed, cfg.GridWidth, cfg.GridHeight),
		target:     target.Build(cfg.Tunables.PhenotypeResolution, target.DefaultGaussians(), cfg.Tunables.YMin, cfg.Tunables.YMax),
		previous:   make([]*organism.Organism, n),
		current:    make([]*organism.Organism, n),
		nextParent: make([]int, n),
		store:      store,
		stats:      sink,
		logger:     logger,
	}

	founder, err := seedFounder(w.key, w.target, cfg)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		w.previous[i] = founder.CloneUnmutated(uuid.NewString())
	}

	return w, nil
}

// seedFounder draws a single ancestor genome by rejection sampling: a
// candidate is only accepted once its metaerror beats the blank-phenotype
// baseline. All draws come from one cell-0 mutation substream at generation
// 0, reused across attempts so its counter keeps advancing; reconstructing
// the stream per attempt would redraw the same candidate forever.
func seedFounder(key rng.Key, target []float64, cfg config.Config) (*organism.Organism, error) {
	baseline := pipeline.BaselineMetaError(target)
	stream := rng.NewStream(key, 0, rng.PurposeMutation, 0)
	bits := func() byte { return byte(stream.UniformInt(0, 2)) }

	for {
		g, err := genome.NewRandom(cfg.InitLengthDNA, bits)
		if err != nil {
			return nil, fmt.Errorf("world: seed founder: %w", err)
		}
		derived := pipeline.Evaluate(g, target, cfg.Tunables)
		if derived.MetaError < baseline {
			o := organism.New(uuid.NewString(), g)
			o.Derived = derived
			return o, nil
		}
	}
}

func (w *World) RunID() string      { return w.runID }
func (w *World) Generation() uint64 { return w.generation }

// Best returns the highest-fitness organism in the previous generation.
func (w *World) Best() (*organism.Organism, error) {
	if len(w.previous) == 0 {
		return nil, ErrEmptyPopulation
	}
	best := w.previous[0]
	for _, o := range w.previous[1:] {
		if o.Derived.Fitness > best.Derived.Fitness {
			best = o
		}
	}
	return best, nil
}

// Step runs one generation: selection, mutation draw, rebuild-or-share,
// array swap, and the statistics/persistence hooks.
func (w *World) Step(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selectAll()
	mutators := w.drawMutations()
	w.buildGeneration(mutators)

	w.previous, w.current = w.current, w.previous
	for i := range w.current {
		w.current[i] = nil
	}
	w.generation++

	best, err := w.Best()
	if err != nil {
		return err
	}
	if err := w.stats.WriteBest(w.generation, best); err != nil {
		w.logger.Warnf("write best stats for generation %d: %v", w.generation, err)
	}
	if err := w.stats.WriteAverage(w.generation, w.previous); err != nil {
		w.logger.Warnf("write average stats for generation %d: %v", w.generation, err)
	}

	if w.cfg.BackupStep > 0 && w.generation%uint64(w.cfg.BackupStep) == 0 {
		if err := w.Save(ctx); err != nil {
			return fmt.Errorf("world: backup at generation %d: %w", w.generation, err)
		}
	}
	return nil
}

// selectAll fills nextParent for every cell from a local fitness-roulette
// over the previous generation's 3x3 toroidal neighborhood.
func (w *World) selectAll() {
	width, height := w.cfg.GridWidth, w.cfg.GridHeight
	for i := 0; i < len(w.previous); i++ {
		x, y := i/height, i%height

		var probs [9]float64
		sum := 0.0
		for k := 0; k < 9; k++ {
			dxIdx, dyIdx := k/3, k%3
			nx := (x + dxIdx - 1 + width) % width
			ny := (y + dyIdx - 1 + height) % height
			neighbor := w.previous[nx*height+ny]
			probs[k] = neighbor.Derived.Fitness
			sum += probs[k]
		}
		for k := range probs {
			probs[k] /= sum
		}

		stream := rng.NewStream(w.key, i, rng.PurposeReproduction, w.generation)
		j := stream.Roulette(probs[:])
		dxIdx, dyIdx := j/3, j%3
		nx := (x + dxIdx - 1 + width) % width
		ny := (y + dyIdx - 1 + height) % height
		w.nextParent[i] = nx*height + ny
	}
}

// drawMutations runs the Mutator for every cell against its chosen
// parent's genome length.
func (w *World) drawMutations() []*mutator.Mutator {
	mutators := make([]*mutator.Mutator, len(w.previous))
	for i := range w.previous {
		parent := w.previous[w.nextParent[i]]
		stream := rng.NewStream(w.key, i, rng.PurposeMutation, w.generation)
		m := mutator.New(stream, parent.Genome.Len(), w.cfg.MutationRate)
		m.Draw()
		mutators[i] = m
	}
	return mutators
}

// buildGeneration rebuilds mutated children via the full pipeline and, for
// unmutated children, shares the literal parent reference rather than
// cloning it, so that an organism's identity survives unmutated across
// generations.
func (w *World) buildGeneration(mutators []*mutator.Mutator) {
	for i, m := range mutators {
		parent := w.previous[w.nextParent[i]]
		if !m.HasMutated {
			w.current[i] = parent
			continue
		}
		child := parent.CloneForMutation(uuid.NewString())
		child.Genome.ApplySwitches(m.Positions())
		child.Derived = pipeline.Evaluate(child.Genome, w.target, w.cfg.Tunables)
		w.current[i] = child
	}
}

// Save persists the current run state.
func (w *World) Save(ctx context.Context) error {
	genomes := make([]snapshot.GenomeRecord, len(w.previous))
	for i, o := range w.previous {
		genomes[i] = snapshot.GenomeRecord{
			ID:     o.ID,
			Bits:   append([]byte(nil), o.Genome.Bits()...),
			Length: o.Genome.Len(),
		}
	}
	snap := snapshot.WorldSnapshot{
		Generation:     w.generation,
		Width:          w.cfg.GridWidth,
		Height:         w.cfg.GridHeight,
		PopulationSize: len(w.previous),
		BackupStep:     w.cfg.BackupStep,
		MutationRate:   w.cfg.MutationRate,
		Seed:           w.cfg.Seed,
		Target:         append([]float64(nil), w.target...),
		Genomes:        genomes,
	}
	if err := w.store.Init(ctx); err != nil {
		return fmt.Errorf("world: init store: %w", err)
	}
	if err := w.store.SaveSnapshot(ctx, w.runID, snap); err != nil {
		return fmt.Errorf("world: save snapshot: %w", err)
	}
	return nil
}

// Resume rebuilds a World from a persisted snapshot, re-running promoter/
// terminator discovery on every loaded genome since derived caches are
// never persisted.
func Resume(ctx context.Context, runID string, store storage.Store, sink stats.Sink, logger logging.Logger) (*World, error) {
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("world: init store: %w", err)
	}
	snap, ok, err := store.GetSnapshot(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("world: load snapshot: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("world: no snapshot for run %s", runID)
	}

	cfg := config.Config{
		GridWidth:     snap.Width,
		GridHeight:    snap.Height,
		Seed:          snap.Seed,
		MutationRate:  snap.MutationRate,
		InitLengthDNA: config.MinGenomeLength,
		BackupStep:    snap.BackupStep,
	}.WithDefaultTunables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.New()
	}
	if sink == nil {
		sink = stats.NoOpSink{}
	}

	n := cfg.GridWidth * cfg.GridHeight
	w := &World{
		runID:      runID,
		cfg:        cfg,
		key:        rng.NewKey(cfg.Seed, cfg.GridWidth, cfg.GridHeight),
		target:     append([]float64(nil), snap.Target...),
		previous:   make([]*organism.Organism, n),
		current:    make([]*organism.Organism, n),
		nextParent: make([]int, n),
		generation: snap.Generation,
		store:      store,
		stats:      sink,
		logger:     logger,
	}

	for i, record := range snap.Genomes {
		g, err := genome.New(record.Bits)
		if err != nil {
			return nil, fmt.Errorf("world: rebuild genome %s: %w", record.ID, err)
		}
		o := organism.New(record.ID, g)
		o.Derived = pipeline.Evaluate(g, w.target, cfg.Tunables)
		w.previous[i] = o
	}
	return w, nil
}
