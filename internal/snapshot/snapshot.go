// Package snapshot defines the persistence DTOs shared between the world
// and the storage backends, kept as a leaf package so storage never needs
// to import world.
package snapshot

// Version is bumped whenever the on-disk shape of WorldSnapshot changes.
const Version = 1

// GenomeRecord is one organism's persisted genome. Derived caches are never
// persisted; the consumer re-runs discovery on load.
type GenomeRecord struct {
	ID     string
	Bits   []byte
	Length int
}

// WorldSnapshot is everything needed to reconstruct a run: generation, grid
// shape, population size, backup cadence, mutation rate, the target curve,
// and every organism's genome.
type WorldSnapshot struct {
	SchemaVersion  int
	CodecVersion   int
	Generation     uint64
	Width          int
	Height         int
	PopulationSize int
	BackupStep     int
	MutationRate   float64
	Seed           int64
	Target         []float64
	Genomes        []GenomeRecord
}
