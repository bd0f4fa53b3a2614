// Package main hosts the oEmbed resolver service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, and resolve endpoints. Raw embed input is normalized
//     into a canonical facebook.com content URL by internal/embed before resolution.
//   - Resolve pipeline: internal/oembed.Resolver selects the post or video oEmbed endpoint per content URL, fetches
//     JSON through the Colly-based fetcher with a fixed per-call timeout, and decodes it into a Record that preserves
//     unknown provider fields.
//   - Caching: outcomes (success and failure alike) are stored in a process-scoped in-memory cache so each distinct
//     content URL triggers at most one network call per process. Nothing is persisted across restarts.
//   - Configuration & plumbing: Viper populates config from env/files; zap provides structured logging; Prometheus
//     metrics are exported via the metrics middleware and /metrics handler.
//
// Operational notes:
//   - Failure model: transport and decode failures never propagate as faults; they are logged once per failing URL,
//     cached as a failure sentinel, and surfaced to API callers as 502 responses.
//   - Run locally: go run ./cmd/fboembed -config config.yaml (or rely solely on FBOEMBED_* env overrides).
package main
