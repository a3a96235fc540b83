// Package config holds the shared tunables for the qfind engine: Bloom
// filter sizing, LSM batch thresholds, and resolver parallelism, mirroring
// the "shared definitions and config" component of the indexing pipeline.
package config

import "time"

// Config collects the tunables named throughout the engine. Zero-value
// Config is not usable directly; construct with Default and override
// individual fields.
type Config struct {
	// PrimaryBits is the size in bits of the primary Bloom filter P.
	// Default 2^28 bits (256 Mb -> 32 MiB of storage).
	PrimaryBits uint64
	// SecondaryBits is the size in bits of the secondary (feed-forward)
	// Bloom filter S. Default 2^27 bits (128 Mb -> 16 MiB of storage).
	SecondaryBits uint64
	// HashCount is k, the number of seeded hash probes per item.
	HashCount int

	// LSMBatchSize is the number of queued adds or deletes that triggers
	// an automatic commit.
	LSMBatchSize int
	// CommitInterval bounds how long the background committer waits
	// between unconditional commits even if no batch has filled.
	CommitInterval time.Duration

	// WorkerThreads caps resolver parallelism; the resolver uses
	// min(runtime.NumCPU(), WorkerThreads).
	WorkerThreads int
	// ResultsPerThread is the result cap Search applies when a query's
	// MaxResults is zero or negative.
	ResultsPerThread int

	// ScoreThreshold is the minimum relevance score a candidate must
	// reach to survive into the result set.
	ScoreThreshold float64

	// PostingCacheEntries bounds the decompressed-posting-list LRU used
	// to skip repeat GR+entropy decode work for frequently queried
	// trigrams.
	PostingCacheEntries int

	// MaxPathLen enforces the PATH_MAX-style ceiling on indexed paths.
	MaxPathLen int
}

// Default returns the engine's default configuration, matching the
// values named in the specification.
func Default() Config {
	return Config{
		PrimaryBits:         1 << 28,
		SecondaryBits:       1 << 27,
		HashCount:           8,
		LSMBatchSize:        5000,
		CommitInterval:      30 * time.Second,
		WorkerThreads:       16,
		ResultsPerThread:    512,
		ScoreThreshold:      0.25,
		PostingCacheEntries: 4096,
		MaxPathLen:          4096,
	}
}
