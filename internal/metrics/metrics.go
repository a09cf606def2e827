// Package metrics defines Prometheus metrics for the credential
// encryption subsystem.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokenCryptoOps tracks token encrypt/decrypt calls by operation and status
	TokenCryptoOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_crypto_operations_total",
			Help: "Token encrypt/decrypt operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// KeyDerivationDuration tracks PBKDF2 latency (expensive by design)
	KeyDerivationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "token_key_derivation_duration_seconds",
			Help:    "PBKDF2 key derivation duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// MigrationRecords tracks credential records processed by migration, by outcome
	MigrationRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_migration_records_total",
			Help: "Credential records processed by token migration, by outcome",
		},
		[]string{"outcome"},
	)
)
