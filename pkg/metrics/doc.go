// Package metrics exposes Prometheus counters for billing events, provider
// redirects, holiday lookups and HTTP traffic on a private registry.
package metrics
