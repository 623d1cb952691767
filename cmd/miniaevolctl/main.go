// Command miniaevolctl drives runs through pkg/miniaevol: a run(ctx, args)
// switch over flag.NewFlagSet subcommands. run and resume build a client from
// --store/--db-path flags and delegate to the facade; inspect opens the
// store directly and prints the saved snapshot's header.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"miniaevol/internal/storage"
	"miniaevol/pkg/miniaevol"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "resume":
		return runResume(ctx, args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "miniaevol.db", "sqlite database path")
	statsDir := fs.String("stats-dir", "", "directory for per-generation JSON stats (empty disables)")
	width := fs.Int("width", 32, "grid width")
	height := fs.Int("height", 32, "grid height")
	seed := fs.Int64("seed", 1, "rng seed")
	mutationRate := fs.Float64("mutation-rate", 1e-5, "per-bit point mutation rate")
	initLen := fs.Int("init-len", 5000, "initial genome length in bits")
	backupStep := fs.Int("backup-step", 0, "generations between snapshots (0 disables)")
	generations := fs.Int("gens", 100, "generation count")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := miniaevol.New(miniaevol.Options{StoreKind: *storeKind, DBPath: *dbPath, StatsDir: *statsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, miniaevol.RunRequest{
		GridWidth:     *width,
		GridHeight:    *height,
		Seed:          *seed,
		MutationRate:  *mutationRate,
		InitLengthDNA: *initLen,
		BackupStep:    *backupStep,
		Generations:   *generations,
	})
	if err != nil {
		return err
	}

	fmt.Printf("run-id=%s generations=%d best-fitness=%f best-id=%s\n",
		summary.RunID, summary.Generations, summary.FinalBestFitness, summary.FinalBestID)
	return nil
}

func runResume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "miniaevol.db", "sqlite database path")
	statsDir := fs.String("stats-dir", "", "directory for per-generation JSON stats (empty disables)")
	runID := fs.String("run-id", "", "run id to resume")
	generations := fs.Int("gens", 100, "additional generations to run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("resume requires --run-id")
	}

	client, err := miniaevol.New(miniaevol.Options{StoreKind: *storeKind, DBPath: *dbPath, StatsDir: *statsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Resume(ctx, *runID, *generations)
	if err != nil {
		return err
	}
	fmt.Printf("run-id=%s generations=%d best-fitness=%f best-id=%s\n",
		summary.RunID, summary.Generations, summary.FinalBestFitness, summary.FinalBestID)
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "miniaevol.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("inspect requires --run-id")
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}
	snap, ok, err := store.GetSnapshot(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot for run %s", *runID)
	}

	fmt.Printf("run-id=%s generation=%d width=%d height=%d population=%d mutation-rate=%g\n",
		*runID, snap.Generation, snap.Width, snap.Height, snap.PopulationSize, snap.MutationRate)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: miniaevolctl <run|resume|inspect> [flags]", msg)
}
