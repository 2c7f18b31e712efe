// Package subscribe implements the cluster subscription layer (C12):
// long-lived server-streaming RPCs built over C10's agent pool. Three
// shapes share this package: single-source relays (§4.12.1), the
// chunked sort-merge used for both multi-container log merge (§4.12.2)
// and stack log streams (§4.12.4), and multi-lane comparison (§4.12.3).
//
// Every stream here follows the same exit discipline: a goroutine reads
// upstream and writes to a channel the caller ranges over, a guard
// (guard.go) accounts the subscription's lifetime in the active-
// subscription gauge via defer — Go's structural analogue of the
// Drop-based lifetime guard described in the design notes — and on
// ctx cancellation the goroutine stops reading upstream and returns,
// running every deferred cleanup on its way out.
package subscribe

import (
	"docktail/internal/config"
)

// Limits bundles the subscription-layer bounds config supplies (§6, §4.12).
type Limits struct {
	MaxContainerStreams int
	MaxStackServices    int
	MergeChunkSize      int
	ComparisonChunkSize int
}

// LimitsFrom adapts config.SubscriptionConfig to Limits.
func LimitsFrom(cfg config.SubscriptionConfig) Limits {
	return Limits{
		MaxContainerStreams: cfg.MaxContainerStreams,
		MaxStackServices:    cfg.MaxStackServices,
		MergeChunkSize:      cfg.MergeChunkSize,
		ComparisonChunkSize: cfg.ComparisonChunkSize,
	}
}

const defaultMaxLanes = 10
