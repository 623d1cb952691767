package world

import (
	"context"
	"testing"

	"miniaevol/internal/config"
	"miniaevol/internal/logging"
	"miniaevol/internal/stats"
	"miniaevol/internal/storage"
)

func neutralConfig() config.Config {
	return config.Config{
		GridWidth:     1,
		GridHeight:    1,
		Seed:          1,
		MutationRate:  0,
		InitLengthDNA: 100,
		BackupStep:    0,
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := neutralConfig()
	cfg.GridWidth = 0
	if _, err := New(cfg, nil, nil, nil); err == nil {
		t.Fatalf("expected error for invalid config")
	}
}

func TestNeutralPopulationFitnessIsConstant(t *testing.T) {
	w, err := New(neutralConfig(), storage.NewMemoryStore(), stats.NoOpSink{}, logging.New())
	if err != nil {
		t.Fatal(err)
	}
	founder, err := w.Best()
	if err != nil {
		t.Fatal(err)
	}
	initialFitness := founder.Derived.Fitness

	ctx := context.Background()
	for g := 0; g < 10; g++ {
		if err := w.Step(ctx); err != nil {
			t.Fatal(err)
		}
	}

	best, err := w.Best()
	if err != nil {
		t.Fatal(err)
	}
	if best.ID != founder.ID {
		t.Fatalf("expected the founder to persist as best under zero mutation, got a different organism")
	}
	if best.Derived.Fitness != initialFitness {
		t.Fatalf("fitness drifted under zero mutation: %f != %f", best.Derived.Fitness, initialFitness)
	}
}

func TestStepAdvancesGeneration(t *testing.T) {
	cfg := neutralConfig()
	cfg.GridWidth = 4
	cfg.GridHeight = 4
	cfg.MutationRate = 1e-3
	w, err := New(cfg, storage.NewMemoryStore(), stats.NoOpSink{}, logging.New())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Step(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.Generation() != 1 {
		t.Fatalf("expected generation 1, got %d", w.Generation())
	}
}

func TestSaveAndResumeRoundTrip(t *testing.T) {
	cfg := neutralConfig()
	cfg.GridWidth = 2
	cfg.GridHeight = 2
	cfg.BackupStep = 1
	store := storage.NewMemoryStore()
	w, err := New(cfg, store, stats.NoOpSink{}, logging.New())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := w.Step(ctx); err != nil {
		t.Fatal(err)
	}

	resumed, err := Resume(ctx, w.RunID(), store, stats.NoOpSink{}, logging.New())
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Generation() != w.Generation() {
		t.Fatalf("resumed generation %d != original %d", resumed.Generation(), w.Generation())
	}
	originalBest, err := w.Best()
	if err != nil {
		t.Fatal(err)
	}
	resumedBest, err := resumed.Best()
	if err != nil {
		t.Fatal(err)
	}
	if originalBest.Derived.Fitness != resumedBest.Derived.Fitness {
		t.Fatalf("resumed best fitness %f != original %f", resumedBest.Derived.Fitness, originalBest.Derived.Fitness)
	}
}
