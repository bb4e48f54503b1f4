// Package metrics exposes Prometheus counters for the generation,
// mutation and corpus pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GeneratedValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_generated_values_total",
		Help: "Total number of top-level values generated",
	})

	MutatedValues = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_mutated_values_total",
		Help: "Total number of top-level mutation passes",
	})

	EarlyBails = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_mutation_early_bails_total",
		Help: "Total number of mutation passes ended by an early bail",
	})

	FixupRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_fixup_runs_total",
		Help: "Total number of fixup passes executed",
	})

	CorpusEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_corpus_entries_total",
		Help: "Total number of corpus entries persisted",
	})

	EncodedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shapefuzz_encoded_bytes_total",
		Help: "Total encoded corpus bytes written",
	})
)
